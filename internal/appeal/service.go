package appeal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reserveguard/internal/actionlog"
	"reserveguard/internal/moderation/metrics"
	"reserveguard/internal/participant"
	"reserveguard/internal/policy"
	dErrors "reserveguard/pkg/domain-errors"
	"reserveguard/pkg/requestcontext"
)

// Service runs the appeal workflow over state owned by the current operation.
type Service struct {
	policy   *policy.Config
	queue    *Queue
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

func NewService(cfg *policy.Config, queue *Queue, registry *participant.Registry, log *actionlog.Log, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "policy is required")
	}
	if queue == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "appeal queue is required")
	}
	if registry == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "participant registry is required")
	}
	if log == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "action log is required")
	}
	s := &Service{
		policy:   cfg,
		queue:    queue,
		registry: registry,
		log:      log,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit enqueues an appeal. The participant does not have to exist or be
// blacklisted, and the reason may be empty; reviewers decide what an appeal
// is worth.
func (s *Service) Submit(ctx context.Context, participantID, reason string) (Indexed, error) {
	if strings.TrimSpace(participantID) == "" {
		return Indexed{}, dErrors.New(dErrors.CodeValidation, "participant id is required")
	}

	now := requestcontext.Now(ctx)
	queued := s.queue.Enqueue(participantID, reason, now)

	entry := actionlog.NewEntry(participantID, actionlog.ActionAppealSubmitted, now)
	entry.Details = fmt.Sprintf("appeal #%d: %s", queued.Index, reason)
	s.log.Append(entry)

	s.logger.InfoContext(ctx, "appeal submitted",
		"participant_id", participantID,
		"appeal_id", queued.Appeal.ID,
		"index", queued.Index,
	)
	return queued, nil
}

// Review decides the appeal at index. Approval reinstates the participant if
// it still exists; a rejected appeal changes nothing but the appeal itself.
//
// Reviewing an already reviewed appeal is a conflict unless the policy allows
// re-review, in which case the latest decision wins.
func (s *Service) Review(ctx context.Context, index int, approve bool) (Indexed, error) {
	a, err := s.queue.Get(index)
	if err != nil {
		return Indexed{}, err
	}
	if a.Reviewed && !s.policy.AllowAppealRereview {
		return Indexed{}, dErrors.Newf(dErrors.CodeConflict, "appeal %d was already reviewed", index)
	}

	now := requestcontext.Now(ctx)
	a.markReviewed(approve, now)
	s.queue.set(index, a)

	action := actionlog.ActionAppealRejected
	if approve {
		action = actionlog.ActionAppealApproved
		if p, err := s.registry.Get(a.ParticipantID); err == nil {
			p.Reinstate()
			p.LastAction = action.String()
			s.registry.Upsert(p)
		}
	}
	entry := actionlog.NewEntry(a.ParticipantID, action, now)
	entry.Details = fmt.Sprintf("appeal #%d", index)
	s.log.Append(entry)

	s.metrics.IncrementAppealReview(approve)
	s.logger.InfoContext(ctx, "appeal reviewed",
		"participant_id", a.ParticipantID,
		"appeal_id", a.ID,
		"index", index,
		"approved", approve,
		"actor", requestcontext.Actor(ctx),
	)
	return Indexed{Index: index, Appeal: a}, nil
}

// List returns every appeal in insertion order.
func (s *Service) List(context.Context) []Indexed {
	return s.queue.List()
}

// Pending returns the appeals awaiting review.
func (s *Service) Pending(context.Context) []Indexed {
	return s.queue.Pending()
}
