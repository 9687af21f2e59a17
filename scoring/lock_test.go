// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/tagquest/models"
	"github.com/danielhkuo/tagquest/testutil"
)

func TestFinalizeIsMonotonic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	teamID := testutil.CreateTestTeam(t, db, "Monotone", "pw", 4)
	d1 := testutil.CreateTestDevice(t, db, teamID, "mono-1")

	finalized, err := IsFinalized(ctx, db, d1.ID)
	if err != nil {
		t.Fatalf("IsFinalized failed: %v", err)
	}
	if finalized {
		t.Fatal("New device should not be finalized")
	}

	for i := 0; i < 2; i++ {
		if err := Finalize(ctx, db, d1.ID); err != nil {
			t.Fatalf("Finalize call %d failed: %v", i, err)
		}
		finalized, _ = IsFinalized(ctx, db, d1.ID)
		if !finalized {
			t.Fatalf("Device should be finalized after call %d", i)
		}
	}
}

func TestFinalizeUnknownUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	if err := Finalize(ctx, db, 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound from Finalize, got %v", err)
	}
	if _, err := IsFinalized(ctx, db, 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound from IsFinalized, got %v", err)
	}
	if _, err := ForceFinalize(ctx, db, 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound from ForceFinalize, got %v", err)
	}
}

func TestForceFinalize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	teamID := testutil.CreateTestTeam(t, db, "Lost Phone", "pw", 4)
	d1 := testutil.CreateTestDevice(t, db, teamID, "lost-1")
	c1 := testutil.CreateTestChallenge(t, db, "Library", 100)

	if _, err := ReconcileSolves(ctx, db, d1, []models.SolveClaim{{ChallengeID: c1, SolvedAt: 1000}}, false); err != nil {
		t.Fatalf("ReconcileSolves failed: %v", err)
	}

	wasOpen, err := ForceFinalize(ctx, db, d1.ID)
	if err != nil {
		t.Fatalf("ForceFinalize failed: %v", err)
	}
	if !wasOpen {
		t.Error("Expected device to have been open")
	}

	wasOpen, err = ForceFinalize(ctx, db, d1.ID)
	if err != nil {
		t.Fatalf("Second ForceFinalize failed: %v", err)
	}
	if wasOpen {
		t.Error("Second ForceFinalize should report the device already closed")
	}

	// Solves made before the override stay on the board
	if n := testutil.CountRows(t, db, `SELECT COUNT(*) FROM solves WHERE user_id = $1`, d1.ID); n != 1 {
		t.Errorf("Expected solve to survive force-finalize, found %d", n)
	}

	_, err = ReconcileSolves(ctx, db, d1, nil, false)
	if !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("Expected ErrAlreadyFinalized after override, got %v", err)
	}
}
