package composition

import (
	"sort"
	"strings"

	"github.com/kapu/tft-coach-go/internal/domain"
	"github.com/kapu/tft-coach-go/internal/util"
)

// EmptyCompHash: 유닛이 없는 보드의 해시
const EmptyCompHash = "empty"

// 이름 폴백 상수
const (
	nameFlexible = "Flexible"
	nameUnknown  = "Unknown"
)

// Detector: 참가자의 최종 보드에서 조합 식별자와 표시 이름을 산출한다.
// 같은 보드는 유닛 순서와 무관하게 항상 같은 해시를 돌려준다.
type Detector struct{}

// NewDetector 는 Detector 를 생성한다.
func NewDetector() *Detector {
	return &Detector{}
}

// Hash: 정규화한 유닛 이름을 정렬해 "_"로 이은 조합 해시를 돌려준다.
func (d *Detector) Hash(units []domain.Unit) string {
	if len(units) == 0 {
		return EmptyCompHash
	}

	names := make([]string, 0, len(units))
	for _, u := range units {
		name := u.Name
		if name == "" {
			name = domain.NormalizeUnitID(u.ID)
		}
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return EmptyCompHash
	}

	sort.Strings(names)
	return strings.Join(names, "_")
}

// Name: 표시 이름을 산출한다.
// 활성 시너지 중 (style, num_units) 상위 둘을 잇는다. 활성 시너지가 없으면
// 시너지 자체가 있을 때 "Flexible", 아니면 최고 코스트 유닛 둘, 그마저 없으면 "Unknown"이다.
func (d *Detector) Name(traits []domain.Trait, units []domain.Unit) string {
	active := make([]domain.Trait, 0, len(traits))
	for _, t := range traits {
		if t.IsActive() {
			active = append(active, t)
		}
	}

	if len(active) > 0 {
		sort.SliceStable(active, func(i, j int) bool {
			if active[i].Style != active[j].Style {
				return active[i].Style > active[j].Style
			}
			return active[i].NumUnits > active[j].NumUnits
		})

		parts := make([]string, 0, 2)
		for _, t := range active {
			parts = append(parts, cleanTraitName(t.Name))
			if len(parts) == 2 {
				break
			}
		}
		return strings.Join(parts, " ")
	}

	if len(traits) > 0 {
		return nameFlexible
	}

	if len(units) > 0 {
		byRarity := make([]domain.Unit, len(units))
		copy(byRarity, units)
		sort.SliceStable(byRarity, func(i, j int) bool {
			return byRarity[i].Rarity > byRarity[j].Rarity
		})

		parts := make([]string, 0, 2)
		for _, u := range byRarity {
			name := u.Name
			if name == "" {
				name = domain.NormalizeUnitID(u.ID)
			}
			if name == "" {
				continue
			}
			parts = append(parts, util.Capitalize(name))
			if len(parts) == 2 {
				break
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}

	return nameUnknown
}

// Detect: 해시와 표시 이름을 한 번에 돌려준다.
func (d *Detector) Detect(p *domain.Participant) (hash, name string) {
	if p == nil {
		return EmptyCompHash, nameUnknown
	}
	return d.Hash(p.Units), d.Name(p.Traits, p.Units)
}

// CoreUnits: 조합의 핵심 유닛 목록을 산출한다. 코스트 내림차순, 동률이면 별 내림차순이다.
func (d *Detector) CoreUnits(units []domain.Unit, limit int) []domain.Unit {
	if limit <= 0 || len(units) == 0 {
		return nil
	}

	sorted := make([]domain.Unit, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rarity != sorted[j].Rarity {
			return sorted[i].Rarity > sorted[j].Rarity
		}
		return sorted[i].Tier > sorted[j].Tier
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// cleanTraitName: "Set15_Sniper" 같은 시너지 식별자에서 접두사를 떼고 보기 좋게 만든다.
func cleanTraitName(name string) string {
	if idx := strings.LastIndex(name, "_"); idx >= 0 {
		name = name[idx+1:]
	}
	return util.Capitalize(name)
}
