package domain

import "time"

// TraitStyle 상수 목록. Riot API의 trait style 서수를 따른다.
const (
	TraitStyleInactive  = 0
	TraitStyleBronze    = 1
	TraitStyleSilver    = 2
	TraitStyleGold      = 3
	TraitStylePrismatic = 4
)

// Unit: 보드 위의 유닛 하나. Name은 세트 접두사가 제거된 정규화 식별자다.
type Unit struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Tier   int      `json:"tier"`   // 별 등급 (1~3)
	Rarity int      `json:"rarity"` // cost
	Items  []string `json:"items,omitempty"`
}

// Trait: 활성화 시너지 하나
type Trait struct {
	Name     string `json:"name"`
	NumUnits int    `json:"num_units"`
	Style    int    `json:"style"` // 0=inactive .. 4=prismatic
}

// IsActive: 시너지가 활성화 상태인지 확인한다.
func (t Trait) IsActive() bool {
	return t.Style > TraitStyleInactive
}

// Participant: 매치당 플레이어 한 명의 최종 기록. (match_id, puuid) 복합 유니크.
// 세 가지 행동 점수는 수집 시점에 한 번 계산되어 저장되며 조회 시 재계산하지 않는다.
type Participant struct {
	ID        uint   `json:"id,omitempty"`
	MatchID   string `json:"match_id"`
	PUUID     string `json:"puuid"`
	Placement int    `json:"placement"` // 1~8, 1이 최고
	Level     int    `json:"level"`
	GoldLeft  int    `json:"gold_left"`
	LastRound int    `json:"last_round"`

	PlayersEliminated int     `json:"players_eliminated"`
	DamageToPlayers   int     `json:"damage_to_players"`
	TimeEliminated    float64 `json:"time_eliminated"`

	Units    []Unit   `json:"units"`
	Traits   []Trait  `json:"traits"`
	Augments []string `json:"augments"`

	TempoScore   int `json:"tempo_score"`
	EconScore    int `json:"econ_score"`
	SynergyScore int `json:"synergy_score"`

	// CompHash는 집계 엔진이 분류한 뒤에만 채워진다. (backfill)
	CompHash  string    `json:"comp_hash,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// IsWin: 1위 여부
func (p *Participant) IsWin() bool {
	return p != nil && p.Placement == 1
}

// IsTop4: 상위 4위 이내 여부
func (p *Participant) IsTop4() bool {
	return p != nil && p.Placement >= 1 && p.Placement <= 4
}

// ActiveTraits: 활성화된 시너지 목록만 돌려준다.
func (p *Participant) ActiveTraits() []Trait {
	if p == nil {
		return nil
	}
	active := make([]Trait, 0, len(p.Traits))
	for _, t := range p.Traits {
		if t.IsActive() {
			active = append(active, t)
		}
	}
	return active
}

// HasAugment: 해당 증강을 선택했는지 확인한다.
func (p *Participant) HasAugment(id string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Augments {
		if a == id {
			return true
		}
	}
	return false
}
