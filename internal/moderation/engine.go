package moderation

import (
	"math"
	"time"

	"reserveguard/internal/actionlog"
	"reserveguard/internal/attestation"
	"reserveguard/internal/participant"
	"reserveguard/internal/policy"
	dErrors "reserveguard/pkg/domain-errors"
)

// Result summarises what a submission did to the participant.
type Result string

const (
	// ResultAccepted: favourable verdict, no consequence.
	ResultAccepted Result = "Accepted"
	// ResultPenalized: adverse verdict, strike recorded, still in good standing.
	ResultPenalized Result = "Penalized"
	// ResultBlacklisted: adverse verdict that reached max_strikes.
	ResultBlacklisted Result = "Blacklisted"
	// ResultRejected: participant was already blacklisted; nothing evaluated.
	ResultRejected Result = "Rejected"
)

func (r Result) String() string {
	return string(r)
}

// Consequence is one row of the verdict table.
type Consequence struct {
	Action          actionlog.Action
	Adverse         bool
	BlacklistReason string
}

// Blacklist reasons recorded when an adverse verdict reaches max_strikes.
const (
	ReasonThresholdFail    = "Too many threshold failures"
	ReasonInsolvent        = "Too many insolvency proofs"
	ReasonOperatorMismatch = "Too many reserve operator mismatches"
)

var consequences = map[attestation.Verdict]Consequence{
	attestation.VerdictVerified: {Action: actionlog.ActionVerified},
	attestation.VerdictSolvent:  {Action: actionlog.ActionSolvent},
	attestation.VerdictOperatorMismatch: {
		Action:          actionlog.ActionReserveOperatorMismatch,
		Adverse:         true,
		BlacklistReason: ReasonOperatorMismatch,
	},
	attestation.VerdictThresholdFail: {
		Action:          actionlog.ActionThresholdFail,
		Adverse:         true,
		BlacklistReason: ReasonThresholdFail,
	},
	attestation.VerdictInsolvent: {
		Action:          actionlog.ActionInsolvent,
		Adverse:         true,
		BlacklistReason: ReasonInsolvent,
	},
}

// ConsequenceFor looks up the table row for verdict.
func ConsequenceFor(verdict attestation.Verdict) (Consequence, bool) {
	c, ok := consequences[verdict]
	return c, ok
}

// Outcome is the updated participant plus the entries to append, in order.
type Outcome struct {
	Participant participant.Participant `json:"participant"`
	Entries     []actionlog.Entry       `json:"entries"`
	Result      Result                  `json:"result"`
}

// Reject records an attempt by a blacklisted participant. Strikes and
// reputation are left as they are.
func Reject(p participant.Participant, now time.Time) Outcome {
	entry := actionlog.NewEntry(p.ID, actionlog.ActionAttemptedActionWhileBlacklisted, now)
	p.LastAction = entry.Action.String()
	return Outcome{Participant: p, Entries: []actionlog.Entry{entry}, Result: ResultRejected}
}

// Apply runs one moderation step. It is pure: the caller stores the returned
// participant and appends the entries.
//
// Rule priority:
//  1. Blacklisted participants are rejected without evaluating consequences.
//  2. Favourable verdicts only record the action.
//  3. Adverse verdicts add a strike and the reputation penalty, then blacklist
//     once strikes reach max_strikes.
func Apply(cfg *policy.Config, p participant.Participant, verdict attestation.Verdict, now time.Time) (Outcome, error) {
	if cfg == nil {
		return Outcome{}, dErrors.New(dErrors.CodeInternal, "policy is required")
	}
	consequence, ok := ConsequenceFor(verdict)
	if !ok {
		return Outcome{}, dErrors.Newf(dErrors.CodeValidation, "unknown verdict %q", verdict)
	}

	// Rule 1: blacklisted participants cannot act
	if p.Blacklisted {
		return Reject(p, now), nil
	}

	entry := actionlog.NewEntry(p.ID, consequence.Action, now)
	p.LastAction = entry.Action.String()

	// Rule 2: favourable verdicts
	if !consequence.Adverse {
		return Outcome{Participant: p, Entries: []actionlog.Entry{entry}, Result: ResultAccepted}, nil
	}

	// Rule 3: strike, penalty, possible blacklist
	if p.Strikes < math.MaxUint32 {
		p.Strikes++
	}
	p.Reputation += cfg.ReputationPenalty
	if p.Strikes < cfg.MaxStrikes {
		return Outcome{Participant: p, Entries: []actionlog.Entry{entry}, Result: ResultPenalized}, nil
	}

	p.Blacklist(consequence.BlacklistReason)
	blacklisted := actionlog.NewEntry(p.ID, actionlog.ActionBlacklisted, now)
	blacklisted.Details = consequence.BlacklistReason
	p.LastAction = blacklisted.Action.String()
	return Outcome{
		Participant: p,
		Entries:     []actionlog.Entry{entry, blacklisted},
		Result:      ResultBlacklisted,
	}, nil
}
