package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RIOT_API_KEY", "RGAPI-test")
	t.Setenv("CRON_SECRET_HASH", "$2a$10$abcdefghijklmnopqrstuv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Riot.Platform != "euw1" {
		t.Errorf("platform = %s", cfg.Riot.Platform)
	}
	if cfg.Sync.MatchesPerPlayer != 10 {
		t.Errorf("matches per player = %d", cfg.Sync.MatchesPerPlayer)
	}
	if len(cfg.Sync.LadderPlatforms) != 4 {
		t.Errorf("ladder platforms = %v", cfg.Sync.LadderPlatforms)
	}
}

func TestValidateMissingKey(t *testing.T) {
	t.Setenv("RIOT_API_KEY", "")
	t.Setenv("CRON_SECRET_HASH", "hash")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing RIOT_API_KEY")
	}
}

func TestParseCommaSeparated(t *testing.T) {
	got := parseCommaSeparated(" euw1, kr ,,na1 ")
	if len(got) != 3 || got[1] != "kr" {
		t.Errorf("parseCommaSeparated = %v", got)
	}
}
