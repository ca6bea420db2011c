package riot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"log/slog"

	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/internal/domain"
	"github.com/kapu/tft-coach-go/pkg/errors"
)

// platformToRegion: 플랫폼 라우팅(euw1)을 리저널 라우팅(europe)으로 변환하는 테이블
var platformToRegion = map[string]string{
	"euw1": "europe", "eun1": "europe", "tr1": "europe", "ru": "europe",
	"kr": "asia", "jp1": "asia",
	"na1": "americas", "br1": "americas", "la1": "americas", "la2": "americas",
	"oc1": "sea", "sg2": "sea", "tw2": "sea", "vn2": "sea",
}

// RegionFor: 플랫폼에 대응하는 리저널 라우팅을 돌려준다. 모르는 값은 europe이다.
func RegionFor(platform string) string {
	if region, ok := platformToRegion[strings.ToLower(platform)]; ok {
		return region
	}
	return "europe"
}

func platformHost(platform string) string {
	return fmt.Sprintf("%s.api.riotgames.com", strings.ToLower(platform))
}

func regionHost(platform string) string {
	return fmt.Sprintf("%s.api.riotgames.com", RegionFor(platform))
}

// RawLeagueList: league-v1 리그 응답 (challenger/grandmaster/master)
type RawLeagueList struct {
	Tier    string               `json:"tier"`
	Entries []domain.LeagueEntry `json:"entries"`
}

// BatchResult: 배치 매치 조회 결과. 부분 실패를 허용한다.
type BatchResult struct {
	Matches  []*domain.RawMatch
	Failures map[string]error
}

// Service: Riot API 타입드 엔드포인트 모음
type Service struct {
	client Requester
	logger *slog.Logger

	// batchDelay는 배치 조회 시 요청 간 간격이다. 테스트에서 0으로 줄인다.
	batchDelay time.Duration
	sleep      func(time.Duration)
}

// NewService: Riot API 서비스를 생성한다.
func NewService(client Requester, logger *slog.Logger) *Service {
	return &Service{
		client:     client,
		logger:     logger,
		batchDelay: constants.RiotAPIConfig.BatchRequestDelay,
		sleep:      time.Sleep,
	}
}

func decode[T any](body []byte) (*T, error) {
	if body == nil {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode riot response: %w", err)
	}
	return &out, nil
}

// AccountByRiotID: Riot ID(이름#태그)로 계정을 조회한다. 없으면 (nil, nil)이다.
func (s *Service) AccountByRiotID(ctx context.Context, platform, gameName, tagLine string) (*domain.Account, error) {
	path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
		url.PathEscape(gameName), url.PathEscape(tagLine))
	body, err := s.client.DoRequest(ctx, regionHost(platform), path, nil)
	if err != nil {
		return nil, err
	}
	return decode[domain.Account](body)
}

// SummonerByPUUID: PUUID로 소환사를 조회한다.
func (s *Service) SummonerByPUUID(ctx context.Context, platform, puuid string) (*domain.Summoner, error) {
	path := "/tft/summoner/v1/summoners/by-puuid/" + url.PathEscape(puuid)
	body, err := s.client.DoRequest(ctx, platformHost(platform), path, nil)
	if err != nil {
		return nil, err
	}
	return decode[domain.Summoner](body)
}

// LeagueEntriesByPUUID: PUUID의 랭크 엔트리 목록을 조회한다.
func (s *Service) LeagueEntriesByPUUID(ctx context.Context, platform, puuid string) ([]domain.LeagueEntry, error) {
	path := "/tft/league/v1/by-puuid/" + url.PathEscape(puuid)
	body, err := s.client.DoRequest(ctx, platformHost(platform), path, nil)
	if err != nil || body == nil {
		return nil, err
	}
	var entries []domain.LeagueEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode league entries: %w", err)
	}
	return entries, nil
}

// ChallengerLeague: 플랫폼의 챌린저 리그를 조회한다.
func (s *Service) ChallengerLeague(ctx context.Context, platform string) (*RawLeagueList, error) {
	body, err := s.client.DoRequest(ctx, platformHost(platform), "/tft/league/v1/challenger", nil)
	if err != nil {
		return nil, err
	}
	return decode[RawLeagueList](body)
}

// MatchIDsByPUUID: 최근 매치 ID 목록을 조회한다. count는 1~MaxMatchCount로 잘린다.
func (s *Service) MatchIDsByPUUID(ctx context.Context, platform, puuid string, count int) ([]string, error) {
	if count <= 0 {
		count = constants.RiotAPIConfig.DefaultMatchCount
	}
	if count > constants.RiotAPIConfig.MaxMatchCount {
		count = constants.RiotAPIConfig.MaxMatchCount
	}

	path := "/tft/match/v1/matches/by-puuid/" + url.PathEscape(puuid) + "/ids"
	params := url.Values{"count": []string{strconv.Itoa(count)}}
	body, err := s.client.DoRequest(ctx, regionHost(platform), path, params)
	if err != nil || body == nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode match ids: %w", err)
	}
	return ids, nil
}

// MatchByID: 매치 상세를 조회한다. 없으면 (nil, nil)이다.
func (s *Service) MatchByID(ctx context.Context, platform, matchID string) (*domain.RawMatch, error) {
	path := "/tft/match/v1/matches/" + url.PathEscape(matchID)
	body, err := s.client.DoRequest(ctx, regionHost(platform), path, nil)
	if err != nil {
		return nil, err
	}
	return decode[domain.RawMatch](body)
}

// MatchesByIDs: 매치 상세를 순차 조회한다. 요청 사이에 고정 간격을 둔다.
// 인증 오류는 즉시 중단하고, 개별 실패는 Failures에 모은다.
func (s *Service) MatchesByIDs(ctx context.Context, platform string, matchIDs []string) (*BatchResult, error) {
	result := &BatchResult{
		Matches:  make([]*domain.RawMatch, 0, len(matchIDs)),
		Failures: make(map[string]error),
	}

	for i, id := range matchIDs {
		if i > 0 && s.batchDelay > 0 {
			s.sleep(s.batchDelay)
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		match, err := s.MatchByID(ctx, platform, id)
		if err != nil {
			if errors.IsUnauthorized(err) {
				return result, err
			}
			s.logger.Warn("Match fetch failed",
				slog.String("match_id", id),
				slog.Any("error", err),
			)
			result.Failures[id] = err
			continue
		}
		if match == nil {
			continue
		}
		result.Matches = append(result.Matches, match)
	}

	return result, nil
}

// RankFromEntries: 랭크 엔트리 목록에서 TFT 랭크 게임 엔트리를 골라 정리한다.
func RankFromEntries(entries []domain.LeagueEntry) *domain.Rank {
	for _, e := range entries {
		if e.QueueType == "RANKED_TFT" {
			return &domain.Rank{
				Tier:         e.Tier,
				Division:     e.Rank,
				LeaguePoints: e.LeaguePoints,
				Wins:         e.Wins,
				Losses:       e.Losses,
			}
		}
	}
	return nil
}

// FullProfile: 계정, 소환사, 랭크, 최근 매치 ID를 묶어서 조회한다.
func (s *Service) FullProfile(ctx context.Context, platform, gameName, tagLine string, matchCount int) (*domain.Profile, error) {
	account, err := s.AccountByRiotID(ctx, platform, gameName, tagLine)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}

	profile := &domain.Profile{Account: *account}

	summoner, err := s.SummonerByPUUID(ctx, platform, account.PUUID)
	if err != nil {
		return nil, err
	}
	if summoner != nil {
		profile.Summoner = *summoner
	}

	entries, err := s.LeagueEntriesByPUUID(ctx, platform, account.PUUID)
	if err != nil {
		return nil, err
	}
	profile.Rank = RankFromEntries(entries)

	ids, err := s.MatchIDsByPUUID(ctx, platform, account.PUUID, matchCount)
	if err != nil {
		return nil, err
	}
	profile.MatchIDs = ids

	return profile, nil
}

