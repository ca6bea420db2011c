package coaching

import (
	"github.com/kapu/tft-coach-go/internal/domain"
	"github.com/kapu/tft-coach-go/internal/util"
)

// 행동 점수는 수집 시점에 한 번 계산해 저장한다. 분석은 저장값을 소비만 한다.

// TempoScore: 레벨링/생존 템포 점수 (0~100).
// 레벨 9, 라운드 28을 만점 기준으로 삼고, 15라운드 전 탈락은 감점한다.
func TempoScore(level, lastRound int) int {
	levelPart := util.Clamp(float64(level)/9.0*100, 0, 100)
	roundPart := util.Clamp(float64(lastRound)/28.0*100, 0, 100)

	penalty := 0.0
	if lastRound < 15 {
		penalty = float64(15-lastRound) * 3
	}

	return int(util.Clamp(0.6*levelPart+0.4*roundPart-penalty, 0, 100))
}

// EconScore: 골드 운용 점수 (0~100). 남긴 골드가 적을수록, 순방에 성공할수록 높다.
func EconScore(goldLeft, placement int) int {
	remaining := 100 - float64(goldLeft)*4
	if remaining < 0 {
		remaining = 0
	}

	bonus := 0.0
	if placement >= 1 && placement <= 4 {
		bonus = 20
	}
	return int(util.Clamp(0.8*remaining+bonus, 0, 100))
}

// SynergyScore: 시너지 활성도 점수 (0~100).
func SynergyScore(traits []domain.Trait) int {
	sum := 0.0
	activeCount := 0
	for _, t := range traits {
		sum += float64(t.Style) * 15
		if t.IsActive() {
			activeCount++
		}
	}
	return int(util.Clamp(sum+float64(activeCount)*5, 0, 100))
}

// ScoreParticipant: 세 점수를 계산해 참가 레코드에 채워 넣는다.
func ScoreParticipant(p *domain.Participant) {
	if p == nil {
		return
	}
	p.TempoScore = TempoScore(p.Level, p.LastRound)
	p.EconScore = EconScore(p.GoldLeft, p.Placement)
	p.SynergyScore = SynergyScore(p.Traits)
}
