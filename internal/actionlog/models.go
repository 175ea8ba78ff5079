package actionlog

import "time"

// Action is a label from the fixed action vocabulary.
type Action string

// Actions recorded by the moderation engine.
const (
	ActionVerified                        Action = "verified"
	ActionSolvent                         Action = "solvent"
	ActionReserveOperatorMismatch         Action = "reserve_operator_mismatch"
	ActionThresholdFail                   Action = "threshold_fail"
	ActionInsolvent                       Action = "insolvent"
	ActionBlacklisted                     Action = "blacklisted"
	ActionAttemptedActionWhileBlacklisted Action = "attempted_action_while_blacklisted"
)

// Administrative actions.
const (
	ActionStrikesReset    Action = "strikes_reset"
	ActionAppealSubmitted Action = "appeal_submitted"
	ActionAppealApproved  Action = "appeal_approved"
	ActionAppealRejected  Action = "appeal_rejected"
)

func (a Action) String() string {
	return string(a)
}

// Entry is one audit record. Entries are never mutated after they are
// appended.
type Entry struct {
	ID             string `json:"id"`
	ParticipantID  string `json:"participant_id"`
	Action         Action `json:"action"`
	Timestamp      int64  `json:"timestamp"`
	Details        string `json:"details,omitempty"`
	AttestationCID string `json:"attestation_cid,omitempty"`
}

// NewEntry builds an entry stamped with now in unix seconds. The id is
// assigned when the entry is appended.
func NewEntry(participantID string, action Action, now time.Time) Entry {
	return Entry{
		ParticipantID: participantID,
		Action:        action,
		Timestamp:     now.Unix(),
	}
}

// Time returns the entry timestamp as a time.Time in UTC.
func (e Entry) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}
