// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scoring reconciles solve claims from team devices and computes the
public leaderboard.

# Reconciliation

Every device on a team reports the challenges it believes the team has
solved, each with a client-side timestamp in unix milliseconds:

	res, err := scoring.ReconcileSolves(ctx, db, device, claims, isFinal)

Claims merge into one shared solve set per team. For each challenge the
earliest solvedAt wins, and the solve is credited to the device that
reported it:

	D1 reports challenge 1 at 1000  → inserted, credited to D1
	D2 reports challenge 1 at 500   → updated, credited to D2
	D1 reports challenge 1 at 700   → ignored

Replaying a batch is a no-op. The order in which devices sync does not
change the final state.

A batch runs in one transaction that first locks the team row, so two
devices on the same team never interleave their read-compare-write steps.
Teams do not contend with each other.

# Final Submission

A batch with isFinal set closes the device after its claims are applied.
Any later batch from that device fails with ErrAlreadyFinalized and writes
nothing, not even last_active. The flag is never cleared.

Admins can close a device that will never sync again:

	wasOpen, err := scoring.ForceFinalize(ctx, db, userID)

# Leaderboard

ComputeLeaderboard returns the challenge catalog, each team's total over
distinct solved challenges with the first solve time per challenge, and
whether every device has finalized. Teams with no solves appear with zero
points. Ties are broken by team creation order.

The HTTP layer reads through an Aggregator so concurrent polls share one
query:

	agg := scoring.NewAggregator(db)
	board, err := agg.Leaderboard(ctx)

# Errors

  - ErrAlreadyFinalized: the device has made its final submission
  - ErrUserNotFound: the device or its team no longer exists
  - *ValidationError: a claim has a non-positive timestamp; the whole batch
    is rejected

Claims for challenges that no longer exist are skipped and counted as
ignored.
*/
package scoring
