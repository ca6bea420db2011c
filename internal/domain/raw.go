package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/kapu/tft-coach-go/pkg/errors"
)

// Riot Match-V5 TFT 응답의 와이어 포맷. 필요한 필드만 디코딩한다.

// RawMatch: match-v5 응답 최상위
type RawMatch struct {
	Metadata RawMetadata `json:"metadata"`
	Info     RawInfo     `json:"info"`
}

// RawMetadata 는 매치 메타데이터이다.
type RawMetadata struct {
	MatchID      string   `json:"match_id"`
	Participants []string `json:"participants"`
}

// RawInfo: 게임 정보 블록
type RawInfo struct {
	GameDatetime int64            `json:"game_datetime"` // epoch millis
	GameLength   float64          `json:"game_length"`   // seconds
	GameVersion  string           `json:"game_version"`
	QueueID      int              `json:"queue_id"`
	SetNumber    int              `json:"tft_set_number"`
	Participants []RawParticipant `json:"participants"`
}

// RawParticipant: 참가자 와이어 포맷. augments는 패치에 따라 문자열 배열이거나
// 객체 배열로 내려오므로 RawMessage로 받아서 나중에 정규화한다.
type RawParticipant struct {
	PUUID             string            `json:"puuid"`
	Placement         int               `json:"placement"`
	Level             int               `json:"level"`
	GoldLeft          int               `json:"gold_left"`
	LastRound         int               `json:"last_round"`
	PlayersEliminated int               `json:"players_eliminated"`
	TotalDamage       int               `json:"total_damage_to_players"`
	TimeEliminated    float64           `json:"time_eliminated"`
	Traits            []RawTrait        `json:"traits"`
	Units             []RawUnit         `json:"units"`
	Augments          []json.RawMessage `json:"augments"`
}

// RawTrait 는 시너지 와이어 포맷이다.
type RawTrait struct {
	Name     string `json:"name"`
	NumUnits int    `json:"num_units"`
	Style    int    `json:"style"`
	TierCur  int    `json:"tier_current"`
}

// RawUnit: 유닛 와이어 포맷. itemNames가 없는 구버전 응답은 숫자 items를 쓴다.
type RawUnit struct {
	CharacterID string   `json:"character_id"`
	Tier        int      `json:"tier"`
	Rarity      int      `json:"rarity"`
	ItemNames   []string `json:"itemNames"`
	Items       []int    `json:"items"`
}

var setPrefixRe = regexp.MustCompile(`(?i)^(tft\d+_|tftset\d+_)`)

// NormalizeUnitID: 세트 접두사를 제거하고 소문자로 정규화한다.
// "TFT14_Jinx" -> "jinx"
func NormalizeUnitID(id string) string {
	return strings.ToLower(setPrefixRe.ReplaceAllString(strings.TrimSpace(id), ""))
}

// normalizeAugment: 문자열 또는 {id|name} 객체 형태의 증강 항목 하나를 해석한다.
func normalizeAugment(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.ID != "" {
			return obj.ID, nil
		}
		if obj.Name != "" {
			return obj.Name, nil
		}
	}
	return "", errors.NewValidationError("augments", fmt.Sprintf("unrecognized augment payload: %s", string(raw)))
}

// NormalizeMatch: 와이어 포맷을 내부 도메인 모델로 변환한다.
// 알 수 없는 증강 형태가 하나라도 있으면 ValidationError를 돌려준다.
func NormalizeMatch(raw *RawMatch) (*Match, []Participant, error) {
	if raw == nil || raw.Metadata.MatchID == "" {
		return nil, nil, errors.NewValidationError("match_id", "missing match id")
	}

	match := &Match{
		MatchID:      raw.Metadata.MatchID,
		GameDatetime: time.UnixMilli(raw.Info.GameDatetime).UTC(),
		GameLength:   int(raw.Info.GameLength),
		GameVersion:  raw.Info.GameVersion,
		QueueID:      raw.Info.QueueID,
		SetNumber:    raw.Info.SetNumber,
	}

	participants := make([]Participant, 0, len(raw.Info.Participants))
	for _, rp := range raw.Info.Participants {
		units := make([]Unit, 0, len(rp.Units))
		for _, ru := range rp.Units {
			items := ru.ItemNames
			if len(items) == 0 && len(ru.Items) > 0 {
				items = make([]string, 0, len(ru.Items))
				for _, it := range ru.Items {
					items = append(items, strconv.Itoa(it))
				}
			}
			units = append(units, Unit{
				ID:     ru.CharacterID,
				Name:   NormalizeUnitID(ru.CharacterID),
				Tier:   ru.Tier,
				Rarity: ru.Rarity,
				Items:  items,
			})
		}

		traits := make([]Trait, 0, len(rp.Traits))
		for _, rt := range rp.Traits {
			traits = append(traits, Trait{
				Name:     rt.Name,
				NumUnits: rt.NumUnits,
				Style:    rt.Style,
			})
		}

		augments := make([]string, 0, len(rp.Augments))
		for _, ra := range rp.Augments {
			id, err := normalizeAugment(ra)
			if err != nil {
				return nil, nil, err
			}
			augments = append(augments, id)
		}

		participants = append(participants, Participant{
			MatchID:           raw.Metadata.MatchID,
			PUUID:             rp.PUUID,
			Placement:         rp.Placement,
			Level:             rp.Level,
			GoldLeft:          rp.GoldLeft,
			LastRound:         rp.LastRound,
			PlayersEliminated: rp.PlayersEliminated,
			DamageToPlayers:   rp.TotalDamage,
			TimeEliminated:    rp.TimeEliminated,
			Units:             units,
			Traits:            traits,
			Augments:          augments,
		})
	}

	return match, participants, nil
}
