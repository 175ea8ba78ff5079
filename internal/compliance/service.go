package compliance

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reserveguard/internal/actionlog"
	"reserveguard/internal/appeal"
	"reserveguard/internal/attestation"
	"reserveguard/internal/moderation"
	"reserveguard/internal/moderation/metrics"
	"reserveguard/internal/participant"
	"reserveguard/internal/policy"
	"reserveguard/internal/prover"
	"reserveguard/internal/state"
	"reserveguard/internal/storage"
	dErrors "reserveguard/pkg/domain-errors"
)

const tracerName = "reserveguard/internal/compliance"

// Service is the command surface. Every command loads the state wholesale,
// operates on it in memory and, when it mutated anything, saves it wholesale.
// Commands are not safe to run concurrently against the same store; callers
// serialise them.
type Service struct {
	store      storage.DocumentStore
	policyPath string
	prover     prover.Prover
	publisher  actionlog.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
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

// WithPolicyPath sets the TOML policy document read by every command. Without
// it the documented defaults apply.
func WithPolicyPath(path string) Option {
	return func(s *Service) {
		s.policyPath = path
	}
}

// WithProver makes attestation evaluation go through the external engine.
func WithProver(p prover.Prover) Option {
	return func(s *Service) {
		s.prover = p
	}
}

// WithPublisher streams the entries of every saved command.
func WithPublisher(p actionlog.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(store storage.DocumentStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "document store is required")
	}
	s := &Service{
		store:     store,
		publisher: actionlog.NopPublisher{},
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submission is the result of evaluating one attestation. Evaluation and
// Trace are nil when a blacklisted participant was rejected unevaluated.
type Submission struct {
	Evaluation *attestation.Evaluation `json:"evaluation,omitempty"`
	Outcome    moderation.Outcome      `json:"outcome"`
	Trace      *prover.Trace           `json:"trace,omitempty"`
}

// EvaluateAttestation applies a to the submitting participant. A blacklisted
// participant is rejected and the attempt logged before the attestation is
// validated or proved. Otherwise the attestation is evaluated, reconciled with
// the prover when one is configured, and the verdict applied. Validation and
// prover failures abort before any state is touched.
func (s *Service) EvaluateAttestation(ctx context.Context, a attestation.Attestation) (sub *Submission, err error) {
	ctx, span := s.start(ctx, "EvaluateAttestation", attribute.String("participant.id", a.BankID))
	defer func() { end(span, err) }()
	start := time.Now()

	cfg, err := s.loadPolicy(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := state.Load(ctx, s.store)
	if err != nil {
		return nil, err
	}
	engine, err := moderation.NewService(cfg, snap.Participants, snap.Log,
		moderation.WithLogger(s.logger),
		moderation.WithMetrics(s.metrics),
	)
	if err != nil {
		return nil, err
	}

	cid, err := attestation.Fingerprint(a)
	if err != nil {
		return nil, err
	}
	if outcome, rejected := engine.RejectBlacklisted(ctx, a.BankID, cid); rejected {
		if err := s.commit(ctx, snap); err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.String("moderation.result", outcome.Result.String()))
		return &Submission{Outcome: outcome}, nil
	}

	eval, err := attestation.Evaluate(a)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("attestation.cid", eval.CID),
		attribute.String("attestation.verdict", eval.Verdict.String()),
	)

	tr, err := s.prove(ctx, a, eval)
	if err != nil {
		return nil, err
	}

	outcome, err := engine.Submit(ctx, a.BankID, eval)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, snap); err != nil {
		return nil, err
	}
	s.metrics.ObserveEvaluateLatency(time.Since(start))
	span.SetAttributes(attribute.String("moderation.result", outcome.Result.String()))

	return &Submission{Evaluation: eval, Outcome: outcome, Trace: tr}, nil
}

// CheckAttestation evaluates a and reconciles it with the prover without
// applying a verdict. Participant state and the action log are not touched.
func (s *Service) CheckAttestation(ctx context.Context, a attestation.Attestation) (sub *Submission, err error) {
	ctx, span := s.start(ctx, "CheckAttestation", attribute.String("participant.id", a.BankID))
	defer func() { end(span, err) }()

	eval, err := attestation.Evaluate(a)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("attestation.verdict", eval.Verdict.String()))
	tr, err := s.prove(ctx, a, eval)
	if err != nil {
		return nil, err
	}
	return &Submission{Evaluation: eval, Trace: tr}, nil
}

func (s *Service) prove(ctx context.Context, a attestation.Attestation, eval *attestation.Evaluation) (*prover.Trace, error) {
	if s.prover == nil {
		return nil, nil
	}
	tr, err := s.prover.Prove(ctx, a)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProver, "prove attestation")
	}
	if err := prover.Check(tr, a, eval); err != nil {
		s.logger.ErrorContext(ctx, "prover trace rejected",
			"participant_id", a.BankID,
			"attestation_cid", eval.CID,
			"error", err,
		)
		return nil, err
	}
	return tr, nil
}

// CheckBlacklist reports the participant's standing. Read-only.
func (s *Service) CheckBlacklist(ctx context.Context, participantID string) (p participant.Participant, err error) {
	ctx, span := s.start(ctx, "CheckBlacklist", attribute.String("participant.id", participantID))
	defer func() { end(span, err) }()

	snap, err := state.Load(ctx, s.store)
	if err != nil {
		return participant.Participant{}, err
	}
	return snap.Participants.Get(participantID)
}

// SubmitAppeal enqueues an appeal for participantID.
func (s *Service) SubmitAppeal(ctx context.Context, participantID, reason string) (queued appeal.Indexed, err error) {
	ctx, span := s.start(ctx, "SubmitAppeal", attribute.String("participant.id", participantID))
	defer func() { end(span, err) }()

	snap, workflow, err := s.appeals(ctx)
	if err != nil {
		return appeal.Indexed{}, err
	}
	queued, err = workflow.Submit(ctx, participantID, reason)
	if err != nil {
		return appeal.Indexed{}, err
	}
	if err := s.commit(ctx, snap); err != nil {
		return appeal.Indexed{}, err
	}
	return queued, nil
}

// ListAppeals returns every appeal, or only unreviewed ones when pendingOnly.
func (s *Service) ListAppeals(ctx context.Context, pendingOnly bool) (list []appeal.Indexed, err error) {
	ctx, span := s.start(ctx, "ListAppeals", attribute.Bool("appeals.pending_only", pendingOnly))
	defer func() { end(span, err) }()

	_, workflow, err := s.appeals(ctx)
	if err != nil {
		return nil, err
	}
	if pendingOnly {
		return workflow.Pending(ctx), nil
	}
	return workflow.List(ctx), nil
}

// ReviewAppeal decides the appeal at index.
func (s *Service) ReviewAppeal(ctx context.Context, index int, approve bool) (reviewed appeal.Indexed, err error) {
	ctx, span := s.start(ctx, "ReviewAppeal",
		attribute.Int("appeal.index", index),
		attribute.Bool("appeal.approve", approve),
	)
	defer func() { end(span, err) }()

	snap, workflow, err := s.appeals(ctx)
	if err != nil {
		return appeal.Indexed{}, err
	}
	reviewed, err = workflow.Review(ctx, index, approve)
	if err != nil {
		return appeal.Indexed{}, err
	}
	if err := s.commit(ctx, snap); err != nil {
		return appeal.Indexed{}, err
	}
	return reviewed, nil
}

// ResetStrikes zeroes a participant's strikes.
func (s *Service) ResetStrikes(ctx context.Context, participantID string) (p participant.Participant, err error) {
	ctx, span := s.start(ctx, "ResetStrikes", attribute.String("participant.id", participantID))
	defer func() { end(span, err) }()

	cfg, err := s.loadPolicy(ctx)
	if err != nil {
		return participant.Participant{}, err
	}
	snap, err := state.Load(ctx, s.store)
	if err != nil {
		return participant.Participant{}, err
	}
	engine, err := moderation.NewService(cfg, snap.Participants, snap.Log, moderation.WithLogger(s.logger))
	if err != nil {
		return participant.Participant{}, err
	}
	p, err = engine.ResetStrikes(ctx, participantID)
	if err != nil {
		return participant.Participant{}, err
	}
	if err := s.commit(ctx, snap); err != nil {
		return participant.Participant{}, err
	}
	return p, nil
}

// Logs returns the action log, filtered to one participant when
// participantID is set.
func (s *Service) Logs(ctx context.Context, participantID string) (entries []actionlog.Entry, err error) {
	ctx, span := s.start(ctx, "Logs", attribute.String("participant.id", participantID))
	defer func() { end(span, err) }()

	log, err := actionlog.Load(ctx, s.store)
	if err != nil {
		return nil, err
	}
	if participantID != "" {
		return log.ForParticipant(participantID), nil
	}
	return log.Entries(), nil
}

// ReloadPolicy reads and validates the policy document. found is false when
// the document is absent and the defaults were returned.
func (s *Service) ReloadPolicy(ctx context.Context) (cfg *policy.Config, found bool, err error) {
	ctx, span := s.start(ctx, "ReloadPolicy")
	defer func() { end(span, err) }()

	if s.policyPath == "" {
		return policy.Default(), false, nil
	}
	cfg, found, err = policy.Load(s.policyPath)
	if err != nil {
		return nil, found, err
	}
	s.logger.InfoContext(ctx, "policy loaded",
		"path", s.policyPath,
		"found", found,
		"max_strikes", cfg.MaxStrikes,
		"reputation_penalty", cfg.ReputationPenalty,
		"allow_appeal_rereview", cfg.AllowAppealRereview,
	)
	return cfg, found, nil
}

func (s *Service) loadPolicy(ctx context.Context) (*policy.Config, error) {
	if s.policyPath == "" {
		return policy.Default(), nil
	}
	cfg, found, err := policy.Load(s.policyPath)
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.DebugContext(ctx, "policy document not found, using defaults", "path", s.policyPath)
	}
	return cfg, nil
}

func (s *Service) appeals(ctx context.Context) (*state.Snapshot, *appeal.Service, error) {
	cfg, err := s.loadPolicy(ctx)
	if err != nil {
		return nil, nil, err
	}
	snap, err := state.Load(ctx, s.store)
	if err != nil {
		return nil, nil, err
	}
	workflow, err := appeal.NewService(cfg, snap.Appeals, snap.Participants, snap.Log,
		appeal.WithLogger(s.logger),
		appeal.WithMetrics(s.metrics),
	)
	if err != nil {
		return nil, nil, err
	}
	return snap, workflow, nil
}

// commit saves the snapshot and then publishes the entries it added. A save
// failure is fatal; a publish failure is logged since the state is already
// durable.
func (s *Service) commit(ctx context.Context, snap *state.Snapshot) error {
	if err := snap.Save(ctx, s.store); err != nil {
		s.logger.ErrorContext(ctx, "failed to save state", "error", err)
		return err
	}
	pending := snap.Log.Pending()
	if len(pending) == 0 {
		return nil
	}
	if err := s.publisher.Publish(ctx, pending...); err != nil {
		s.logger.WarnContext(ctx, "failed to publish action log entries",
			"count", len(pending),
			"error", err,
		)
	}
	return nil
}

func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "compliance."+op, trace.WithAttributes(attrs...))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
