package httptransport

import (
	"reserveguard/internal/actionlog"
	"reserveguard/internal/appeal"
	"reserveguard/internal/participant"
	"reserveguard/internal/policy"
)

type SubmitAppealRequest struct {
	ParticipantID string `json:"participant_id"`
	Reason        string `json:"reason"`
}

type ReviewAppealRequest struct {
	Approve *bool `json:"approve"`
}

// ParticipantResponse is the participant standing returned by blacklist
// checks and strike resets.
type ParticipantResponse struct {
	ParticipantID   string `json:"participant_id"`
	Blacklisted     bool   `json:"blacklisted"`
	BlacklistReason string `json:"blacklist_reason,omitempty"`
	Strikes         uint32 `json:"strikes"`
	Reputation      int    `json:"reputation"`
	LastAction      string `json:"last_action,omitempty"`
}

func FromParticipant(p participant.Participant) ParticipantResponse {
	return ParticipantResponse{
		ParticipantID:   p.ID,
		Blacklisted:     p.Blacklisted,
		BlacklistReason: p.BlacklistReason,
		Strikes:         p.Strikes,
		Reputation:      p.Reputation,
		LastAction:      p.LastAction,
	}
}

type AppealsResponse struct {
	Appeals []appeal.Indexed `json:"appeals"`
}

type LogsResponse struct {
	Entries []actionlog.Entry `json:"entries"`
}

type PolicyResponse struct {
	Policy *policy.Config `json:"policy"`
	Found  bool           `json:"found"`
}
