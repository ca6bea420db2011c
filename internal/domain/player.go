package domain

import "time"

// Account: account-v1 응답
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// RiotID: "이름#태그" 표기
func (a *Account) RiotID() string {
	if a == nil {
		return ""
	}
	return a.GameName + "#" + a.TagLine
}

// Summoner: summoner-v1 응답
type Summoner struct {
	ID            string `json:"id"`
	PUUID         string `json:"puuid"`
	Name          string `json:"name"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel"`
}

// LeagueEntry: league-v1 랭크 엔트리
type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	SummonerID   string `json:"summonerId"`
	PUUID        string `json:"puuid"`
}

// Rank: 조회용으로 정리된 랭크 정보
type Rank struct {
	Tier         string `json:"tier"`
	Division     string `json:"division"`
	LeaguePoints int    `json:"league_points"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// Profile: 계정 + 소환사 + 랭크를 묶은 조회 결과
type Profile struct {
	Account  Account   `json:"account"`
	Summoner Summoner  `json:"summoner"`
	Rank     *Rank     `json:"rank,omitempty"`
	MatchIDs []string  `json:"match_ids,omitempty"`
}

// Player: 추적 대상 플레이어 레코드. puuid가 기본 키다.
type Player struct {
	PUUID      string    `json:"puuid"`
	GameName   string    `json:"game_name"`
	TagLine    string    `json:"tag_line"`
	Platform   string    `json:"platform"`
	Tier       string    `json:"tier,omitempty"`
	Tracked    bool      `json:"tracked"`
	LastSynced time.Time `json:"last_synced,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}
