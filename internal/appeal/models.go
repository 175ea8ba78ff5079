package appeal

import "time"

// Appeal is a participant's request for reinstatement. Its position in the
// queue is its index for review.
type Appeal struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id"`
	Reason        string `json:"reason"`
	Timestamp     int64  `json:"timestamp"`
	Reviewed      bool   `json:"reviewed"`
	Approved      bool   `json:"approved"`
	ReviewedAt    *int64 `json:"reviewed_at,omitempty"`
}

// IsPending reports whether the appeal still awaits review.
func (a Appeal) IsPending() bool {
	return !a.Reviewed
}

func (a *Appeal) markReviewed(approved bool, now time.Time) {
	at := now.Unix()
	a.Reviewed = true
	a.Approved = approved
	a.ReviewedAt = &at
}

// Indexed pairs an appeal with its queue position.
type Indexed struct {
	Index  int    `json:"index"`
	Appeal Appeal `json:"appeal"`
}
