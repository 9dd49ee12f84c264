package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/jackzampolin/cardfix/internal/config"
)

// Environment variables that enable tests against the live grading service.
const (
	LiveUIDEnv      = "CARDFIX_LIVE_UID"
	LiveBaseURLEnv  = "CARDFIX_LIVE_BASE_URL"
	LiveImageURLEnv = "CARDFIX_LIVE_IMAGE_URL"
	AuthTokenEnv    = "CARDFIX_AUTH_TOKEN"
)

// TestingT is a subset of testing.T used by the live helpers.
type TestingT interface {
	Helper()
	Skipf(format string, args ...any)
	Logf(format string, args ...any)
}

// LiveConfig describes the live service a test should talk to.
type LiveConfig struct {
	UID       string
	BaseURL   string
	AuthToken string
	ImageURL  string // Optional
	Logger    *slog.Logger
}

// RequireLive returns the live service settings, or skips the test when
// CARDFIX_LIVE_UID is unset or -short is given.
//
// Usage:
//
//	live := testutil.RequireLive(t)
//	client := scanstat.NewClient(scanstat.Config{BaseURL: live.BaseURL, AuthToken: live.AuthToken})
func RequireLive(t TestingT) LiveConfig {
	t.Helper()

	if testing.Short() {
		t.Skipf("skipping live service test in short mode")
	}
	uid := os.Getenv(LiveUIDEnv)
	if uid == "" {
		t.Skipf("%s not set; skipping live service test", LiveUIDEnv)
	}

	baseURL := os.Getenv(LiveBaseURLEnv)
	if baseURL == "" {
		baseURL = config.DefaultConfig().Service.BaseURL
	}
	t.Logf("live service %s, uid %s", baseURL, uid)

	return LiveConfig{
		UID:       uid,
		BaseURL:   baseURL,
		AuthToken: os.Getenv(AuthTokenEnv),
		ImageURL:  os.Getenv(LiveImageURLEnv),
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}
