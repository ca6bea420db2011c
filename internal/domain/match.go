package domain

import "time"

// Match: 한 판의 메타데이터. 최초 수집 시 생성되며 이후 변경되지 않는다. (append-only)
type Match struct {
	MatchID      string    `json:"match_id"`
	GameDatetime time.Time `json:"game_datetime"`
	GameLength   int       `json:"game_length"` // seconds
	GameVersion  string    `json:"game_version"`
	QueueID      int       `json:"queue_id"`
	SetNumber    int       `json:"tft_set_number"`
}

// Patch: game_version 문자열을 그대로 패치 식별자로 사용한다.
func (m *Match) Patch() string {
	if m == nil {
		return ""
	}
	return m.GameVersion
}
