package moderation

import (
	"context"
	"log/slog"

	"reserveguard/internal/actionlog"
	"reserveguard/internal/attestation"
	"reserveguard/internal/moderation/metrics"
	"reserveguard/internal/participant"
	"reserveguard/internal/policy"
	dErrors "reserveguard/pkg/domain-errors"
	"reserveguard/pkg/requestcontext"
)

// Service applies the engine against a registry and action log owned by the
// current operation. Both are mutated in memory; persisting them is the
// caller's job.
type Service struct {
	policy   *policy.Config
	registry *participant.Registry
	log      *actionlog.Log
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(cfg *policy.Config, registry *participant.Registry, log *actionlog.Log, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "policy is required")
	}
	if registry == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "participant registry is required")
	}
	if log == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "action log is required")
	}
	s := &Service{
		policy:   cfg,
		registry: registry,
		log:      log,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit applies an evaluated attestation to participantID, creating the
// participant on first submission. The returned entries carry their ids.
func (s *Service) Submit(ctx context.Context, participantID string, eval *attestation.Evaluation) (Outcome, error) {
	if participantID == "" {
		return Outcome{}, dErrors.New(dErrors.CodeValidation, "participant id is required")
	}
	if eval == nil {
		return Outcome{}, dErrors.New(dErrors.CodeInternal, "evaluation is required")
	}

	before := s.registry.GetOrCreate(participantID)
	outcome, err := Apply(s.policy, before, eval.Verdict, requestcontext.Now(ctx))
	if err != nil {
		return Outcome{}, err
	}
	for i := range outcome.Entries {
		outcome.Entries[i].AttestationCID = eval.CID
	}

	s.registry.Upsert(outcome.Participant)
	outcome.Entries = s.log.Append(outcome.Entries...)

	s.observe(ctx, eval.Verdict, outcome)
	return outcome, nil
}

// RejectBlacklisted records a submission attempt by a blacklisted participant
// without looking at the attestation. ok is false, and nothing is recorded,
// when the participant is unknown or in good standing.
func (s *Service) RejectBlacklisted(ctx context.Context, participantID, attestationCID string) (outcome Outcome, ok bool) {
	p, err := s.registry.Get(participantID)
	if err != nil || !p.Blacklisted {
		return Outcome{}, false
	}
	outcome = Reject(p, requestcontext.Now(ctx))
	for i := range outcome.Entries {
		outcome.Entries[i].AttestationCID = attestationCID
	}
	s.registry.Upsert(outcome.Participant)
	outcome.Entries = s.log.Append(outcome.Entries...)

	s.observe(ctx, "", outcome)
	return outcome, true
}

func (s *Service) observe(ctx context.Context, verdict attestation.Verdict, outcome Outcome) {
	p := outcome.Participant
	switch outcome.Result {
	case ResultRejected:
		s.logger.WarnContext(ctx, "submission rejected for blacklisted participant",
			"participant_id", p.ID,
			"blacklist_reason", p.BlacklistReason,
		)
	case ResultBlacklisted:
		s.metrics.IncrementVerdict(verdict.String())
		s.metrics.IncrementStrike()
		s.metrics.IncrementBlacklisting(p.BlacklistReason)
		s.logger.WarnContext(ctx, "participant blacklisted",
			"participant_id", p.ID,
			"verdict", verdict,
			"strikes", p.Strikes,
			"reason", p.BlacklistReason,
		)
	case ResultPenalized:
		s.metrics.IncrementVerdict(verdict.String())
		s.metrics.IncrementStrike()
		s.logger.InfoContext(ctx, "strike recorded",
			"participant_id", p.ID,
			"verdict", verdict,
			"strikes", p.Strikes,
			"reputation", p.Reputation,
		)
	default:
		s.metrics.IncrementVerdict(verdict.String())
		s.logger.InfoContext(ctx, "attestation accepted",
			"participant_id", p.ID,
			"verdict", verdict,
		)
	}
	s.metrics.IncrementResult(outcome.Result.String())
}

// ResetStrikes zeroes the participant's strikes. Blacklist state is untouched;
// only an approved appeal lifts a blacklist.
func (s *Service) ResetStrikes(ctx context.Context, participantID string) (participant.Participant, error) {
	p, err := s.registry.Get(participantID)
	if err != nil {
		return participant.Participant{}, err
	}
	previous := p.Strikes
	p.Strikes = 0
	p.LastAction = actionlog.ActionStrikesReset.String()
	s.registry.Upsert(p)
	s.log.Append(actionlog.NewEntry(p.ID, actionlog.ActionStrikesReset, requestcontext.Now(ctx)))

	s.logger.InfoContext(ctx, "strikes reset",
		"participant_id", p.ID,
		"previous_strikes", previous,
		"actor", requestcontext.Actor(ctx),
	)
	return p, nil
}

// CheckBlacklist returns the participant so callers can report its standing.
func (s *Service) CheckBlacklist(_ context.Context, participantID string) (participant.Participant, error) {
	return s.registry.Get(participantID)
}
