// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the request, response and domain types shared by the
handlers and the scoring and messaging packages.

# JSON Conventions

Field names are camelCase to match the mobile client. All timestamps are
unix milliseconds (int64), including solvedAt claims and serverTime.

# Domain Types

  - Team: a competing team and its device limit
  - Device: one logged-in user row bound to a team
  - Challenge: points, geofence and NFC key hash
  - SolveClaim: a (challengeId, solvedAt) pair uploaded by a device
  - Message: an admin message, team-targeted or broadcast
  - Leaderboard: the public aggregate view

# Partial Updates

UpdateTeamRequest and UpdateChallengeRequest use pointer fields. A nil field
is absent from the request and is left unchanged:

	{"points": 200}   → only points is updated

# Message Targets

MessageTarget accepts either the string "all" or a team id (number or
numeric string):

	{"teamId": "all", "content": "Final 10 minutes!"}
	{"teamId": 3, "content": "Check challenge 5"}

# Error Reasons

ErrorResponse.Reason carries a machine-readable code where the client needs to
branch: WRONG_CREDS, ACCOUNT_LIMIT_REACHED, ALREADY_FINALIZED,
UNAUTHENTICATED, VALIDATION_ERROR, NOT_FOUND, CONFLICT, INTERNAL_ERROR.
*/
package models
