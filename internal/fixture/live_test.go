package fixture

import (
	"context"
	"testing"
	"time"

	"github.com/jackzampolin/cardfix/internal/scanstat"
	"github.com/jackzampolin/cardfix/internal/testutil"
)

func TestFetchAndSecond_Live(t *testing.T) {
	live := testutil.RequireLive(t)

	client := scanstat.NewClient(scanstat.Config{
		BaseURL:   live.BaseURL,
		AuthToken: live.AuthToken,
		Logger:    live.Logger,
	})
	dir := newDir(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fetched, err := Fetch(ctx, client, dir, FetchRequest{
		ExamID:   live.UID,
		ImageURL: live.ImageURL,
		Logger:   live.Logger,
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if fetched.Pages == 0 {
		t.Error("expected at least one page")
	}

	second, err := GenerateSecond(ctx, dir, SecondRequest{ExamID: live.UID, Logger: live.Logger})
	if err != nil {
		t.Fatalf("GenerateSecond() error = %v", err)
	}
	if len(second.Images) != len(fetched.ImagePaths) {
		t.Errorf("second input has %d images, fetched %d", len(second.Images), len(fetched.ImagePaths))
	}

	rep, err := Validate(dir, live.UID)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !rep.Valid {
		t.Logf("live layout has problems: %v", rep.Errors)
	}
}
