package participant

// DefaultReputation is the reputation a participant starts with.
const DefaultReputation = 100

// Participant is the compliance record of one attesting entity.
//
// Invariants: Blacklisted iff BlacklistReason != "". Reputation is signed and
// unclamped; repeated penalties may drive it below zero.
type Participant struct {
	ID              string `json:"id"`
	Strikes         uint32 `json:"strikes"`
	Reputation      int    `json:"reputation"`
	Blacklisted     bool   `json:"blacklisted"`
	BlacklistReason string `json:"blacklist_reason,omitempty"`
	LastAction      string `json:"last_action,omitempty"`
}

// New returns a fresh record: no strikes, default reputation, not blacklisted.
func New(id string) Participant {
	return Participant{
		ID:         id,
		Reputation: DefaultReputation,
	}
}

// Blacklist marks the participant blacklisted for reason.
func (p *Participant) Blacklist(reason string) {
	p.Blacklisted = true
	p.BlacklistReason = reason
}

// Reinstate clears the blacklist and resets strikes. Reputation is kept.
func (p *Participant) Reinstate() {
	p.Blacklisted = false
	p.BlacklistReason = ""
	p.Strikes = 0
}
