package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Machine-readable error reasons the mobile client branches on
const (
	ReasonUnauthenticated     = "UNAUTHENTICATED"
	ReasonWrongCreds          = "WRONG_CREDS"
	ReasonAlreadyFinalized    = "ALREADY_FINALIZED"
	ReasonAccountLimitReached = "ACCOUNT_LIMIT_REACHED"
	ReasonValidation          = "VALIDATION_ERROR"
	ReasonNotFound            = "NOT_FOUND"
	ReasonConflict            = "CONFLICT"
	ReasonInternal            = "INTERNAL_ERROR"
)

// Domain types

type Team struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MaxMembers  int    `json:"maxMembers"`
	MemberCount int    `json:"memberCount"`
	CreatedAt   int64  `json:"createdAt"`
}

// Device is one logged-in user row. The token never leaves the server
// except in the login response.
type Device struct {
	ID                  int64  `json:"id"`
	TeamID              int64  `json:"teamId"`
	Username            string `json:"username"`
	DeviceToken         string `json:"-"`
	LastActive          int64  `json:"lastActive"`
	MadeFinalSubmission bool   `json:"madeFinalSubmission"`
}

type Geofence struct {
	TopLeftLat     float64 `json:"topLeftLat"`
	TopLeftLng     float64 `json:"topLeftLng"`
	BottomRightLat float64 `json:"bottomRightLat"`
	BottomRightLng float64 `json:"bottomRightLng"`
}

// Valid reports whether the box has its top-left corner north-west of its
// bottom-right corner and all coordinates in range.
func (g Geofence) Valid() bool {
	inLat := func(v float64) bool { return v >= -90 && v <= 90 }
	inLng := func(v float64) bool { return v >= -180 && v <= 180 }
	return inLat(g.TopLeftLat) && inLat(g.BottomRightLat) &&
		inLng(g.TopLeftLng) && inLng(g.BottomRightLng) &&
		g.TopLeftLat >= g.BottomRightLat && g.TopLeftLng <= g.BottomRightLng
}

type Challenge struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	ShortName string   `json:"shortName"`
	Points    int      `json:"points"`
	Geofence  Geofence `json:"geofence"`
	KeyHash   string   `json:"keyHash"`
}

// ChallengeSummary is the public catalog entry shown on the leaderboard
type ChallengeSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	Points    int    `json:"points"`
}

type SolveClaim struct {
	ChallengeID int64 `json:"challengeId"`
	SolvedAt    int64 `json:"solvedAt"`
}

type Message struct {
	ID        int64  `json:"id"`
	TeamID    *int64 `json:"teamId"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
}

// MessageTarget is either a single team or every device ("all")
type MessageTarget struct {
	TeamID    int64
	Broadcast bool
}

var ErrInvalidTarget = errors.New(`teamId must be "all" or a team id`)

func (t *MessageTarget) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrInvalidTarget
	}

	switch v := raw.(type) {
	case string:
		if strings.EqualFold(v, "all") {
			*t = MessageTarget{Broadcast: true}
			return nil
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return ErrInvalidTarget
		}
		*t = MessageTarget{TeamID: id}
	case float64:
		if v <= 0 || v != float64(int64(v)) {
			return ErrInvalidTarget
		}
		*t = MessageTarget{TeamID: int64(v)}
	default:
		return ErrInvalidTarget
	}
	return nil
}

func (t MessageTarget) MarshalJSON() ([]byte, error) {
	if t.Broadcast {
		return json.Marshal("all")
	}
	return json.Marshal(t.TeamID)
}

// Leaderboard types

type FirstSolve struct {
	ChallengeID   int64 `json:"challengeId"`
	FirstSolvedAt int64 `json:"firstSolvedAt"`
}

type TeamSolves struct {
	TeamID      int64        `json:"teamId"`
	TeamName    string       `json:"teamName"`
	TotalPoints int          `json:"totalPoints"`
	Solves      []FirstSolve `json:"solves"`
}

type Leaderboard struct {
	Challenges       []ChallengeSummary `json:"challenges"`
	TeamSolves       []TeamSolves       `json:"teamSolves"`
	CompetitionEnded bool               `json:"competitionEnded"`
}

// Request types

type TeamLoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
}

type UpdateLeaderboardRequest struct {
	DeviceToken       string       `json:"deviceToken"`
	Solves            []SolveClaim `json:"solves"`
	IsFinalSubmission bool         `json:"isFinalSubmission"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SendMessageRequest struct {
	TeamID  *MessageTarget `json:"teamId"`
	Content string         `json:"content"`
}

type CreateTeamRequest struct {
	Name       string `json:"name"`
	Password   string `json:"password"`
	MaxMembers int    `json:"maxMembers"`
}

// UpdateTeamRequest fields are optional; nil means "leave unchanged"
type UpdateTeamRequest struct {
	Name       *string `json:"name"`
	Password   *string `json:"password"`
	MaxMembers *int    `json:"maxMembers"`
}

type CreateChallengeRequest struct {
	Name      string    `json:"name"`
	ShortName string    `json:"shortName"`
	Points    int       `json:"points"`
	Geofence  *Geofence `json:"geofence"`
	KeyHash   string    `json:"keyHash"`
}

// UpdateChallengeRequest fields are optional; nil means "leave unchanged"
type UpdateChallengeRequest struct {
	Name      *string   `json:"name"`
	ShortName *string   `json:"shortName"`
	Points    *int      `json:"points"`
	Geofence  *Geofence `json:"geofence"`
	KeyHash   *string   `json:"keyHash"`
}

// Response types

type TeamLoginResponse struct {
	DeviceToken string      `json:"deviceToken"`
	Username    string      `json:"username"`
	TeamID      int64       `json:"teamId"`
	Challenges  []Challenge `json:"challenges"`
	ServerTime  int64       `json:"serverTime"`
}

type UpdateLeaderboardResponse struct {
	Success    bool  `json:"success"`
	Inserted   int   `json:"inserted"`
	Updated    int   `json:"updated"`
	Ignored    int   `json:"ignored"`
	ServerTime int64 `json:"serverTime"`
}

type MessagesResponse struct {
	Messages   []Message `json:"messages"`
	ServerTime int64     `json:"serverTime"`
}

type SendMessageResponse struct {
	Success    bool  `json:"success"`
	MessageID  int64 `json:"messageId"`
	Recipients int   `json:"recipients"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type AdminLoginResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

type ForceSubmitResponse struct {
	Success bool `json:"success"`
	WasOpen bool `json:"wasOpen"`
}

// MessageHistoryEntry is a sent message with its delivery progress
type MessageHistoryEntry struct {
	Message
	Target    MessageTarget `json:"target"`
	Delivered int           `json:"delivered"`
	Total     int           `json:"total"`
}

// AdminDevice is a device row as shown in the admin portal
type AdminDevice struct {
	Device
	TeamName      string `json:"teamName"`
	LastActiveAgo string `json:"lastActiveAgo"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
