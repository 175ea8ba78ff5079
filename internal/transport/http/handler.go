package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"reserveguard/internal/actionlog"
	"reserveguard/internal/appeal"
	"reserveguard/internal/attestation"
	"reserveguard/internal/compliance"
	"reserveguard/internal/participant"
	"reserveguard/internal/policy"
	dErrors "reserveguard/pkg/domain-errors"
	"reserveguard/pkg/platform/httputil"
	"reserveguard/pkg/requestcontext"
)

// ComplianceService defines the command surface the handlers delegate to.
type ComplianceService interface {
	EvaluateAttestation(ctx context.Context, a attestation.Attestation) (*compliance.Submission, error)
	CheckBlacklist(ctx context.Context, participantID string) (participant.Participant, error)
	SubmitAppeal(ctx context.Context, participantID, reason string) (appeal.Indexed, error)
	ListAppeals(ctx context.Context, pendingOnly bool) ([]appeal.Indexed, error)
	ReviewAppeal(ctx context.Context, index int, approve bool) (appeal.Indexed, error)
	ResetStrikes(ctx context.Context, participantID string) (participant.Participant, error)
	Logs(ctx context.Context, participantID string) ([]actionlog.Entry, error)
	ReloadPolicy(ctx context.Context) (*policy.Config, bool, error)
}

// Handler is the thin HTTP layer over the compliance service. Commands load
// and save the whole state, so the handler runs them one at a time.
type Handler struct {
	mu      sync.Mutex
	service ComplianceService
	logger  *slog.Logger
}

func NewHandler(service ComplianceService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public routes. Admin routes are mounted by RegisterAdmin
// behind the role guard.
func (h *Handler) Register(r chi.Router) {
	r.Post("/attestations", h.HandleEvaluate)
	r.Get("/participants/{id}/blacklist", h.HandleCheckBlacklist)
	r.Post("/appeals", h.HandleSubmitAppeal)
	r.Get("/appeals", h.HandleListAppeals)
	r.Get("/logs", h.HandleLogs)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/appeals/{index}/review", h.HandleReviewAppeal)
	r.Post("/participants/{id}/reset-strikes", h.HandleResetStrikes)
	r.Post("/policy/reload", h.HandleReloadPolicy)
}

// serialize runs fn under the handler lock.
func (h *Handler) serialize(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn()
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error, attrs ...any) {
	attrs = append(attrs,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodePersistence, dErrors.CodeProver:
		h.logger.ErrorContext(ctx, op+" failed", attrs...)
	default:
		h.logger.InfoContext(ctx, op+" rejected", attrs...)
	}
	httputil.WriteError(w, err)
}

// HandleEvaluate handles POST /attestations.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	a, err := attestation.Decode(io.LimitReader(r.Body, httputil.MaxBodyBytes))
	if err != nil {
		h.fail(ctx, w, "attestation decode", err)
		return
	}

	var sub *compliance.Submission
	h.serialize(func() { sub, err = h.service.EvaluateAttestation(ctx, a) })
	if err != nil {
		h.fail(ctx, w, "attestation evaluation", err, "participant_id", a.BankID)
		return
	}

	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"participant_id", a.BankID,
		"result", sub.Outcome.Result,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if sub.Evaluation != nil {
		attrs = append(attrs, "verdict", sub.Evaluation.Verdict)
	}
	h.logger.InfoContext(ctx, "attestation evaluated", attrs...)
	httputil.WriteJSON(w, http.StatusOK, sub)
}

// HandleCheckBlacklist handles GET /participants/{id}/blacklist.
func (h *Handler) HandleCheckBlacklist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var p participant.Participant
	var err error
	h.serialize(func() { p, err = h.service.CheckBlacklist(ctx, id) })
	if err != nil {
		h.fail(ctx, w, "blacklist check", err, "participant_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromParticipant(p))
}

// HandleSubmitAppeal handles POST /appeals.
func (h *Handler) HandleSubmitAppeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[SubmitAppealRequest](r)
	if err != nil {
		h.fail(ctx, w, "appeal decode", err)
		return
	}

	var queued appeal.Indexed
	h.serialize(func() { queued, err = h.service.SubmitAppeal(ctx, req.ParticipantID, req.Reason) })
	if err != nil {
		h.fail(ctx, w, "appeal submission", err, "participant_id", req.ParticipantID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, queued)
}

// HandleListAppeals handles GET /appeals[?pending=true].
func (h *Handler) HandleListAppeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pendingOnly := false
	if raw := r.URL.Query().Get("pending"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.fail(ctx, w, "appeal listing", dErrors.Newf(dErrors.CodeBadRequest, "invalid pending flag %q", raw))
			return
		}
		pendingOnly = v
	}

	var list []appeal.Indexed
	var err error
	h.serialize(func() { list, err = h.service.ListAppeals(ctx, pendingOnly) })
	if err != nil {
		h.fail(ctx, w, "appeal listing", err)
		return
	}
	if list == nil {
		list = []appeal.Indexed{}
	}
	httputil.WriteJSON(w, http.StatusOK, AppealsResponse{Appeals: list})
}

// HandleReviewAppeal handles POST /appeals/{index}/review.
func (h *Handler) HandleReviewAppeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.fail(ctx, w, "appeal review", dErrors.New(dErrors.CodeBadRequest, "appeal index must be an integer"))
		return
	}
	req, err := httputil.DecodeJSON[ReviewAppealRequest](r)
	if err != nil {
		h.fail(ctx, w, "appeal review decode", err)
		return
	}
	if req.Approve == nil {
		h.fail(ctx, w, "appeal review", dErrors.New(dErrors.CodeValidation, "approve is required"))
		return
	}

	var reviewed appeal.Indexed
	h.serialize(func() { reviewed, err = h.service.ReviewAppeal(ctx, index, *req.Approve) })
	if err != nil {
		h.fail(ctx, w, "appeal review", err, "index", index)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviewed)
}

// HandleResetStrikes handles POST /participants/{id}/reset-strikes.
func (h *Handler) HandleResetStrikes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var p participant.Participant
	var err error
	h.serialize(func() { p, err = h.service.ResetStrikes(ctx, id) })
	if err != nil {
		h.fail(ctx, w, "strike reset", err, "participant_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromParticipant(p))
}

// HandleLogs handles GET /logs[?participant=id].
func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	participantID := r.URL.Query().Get("participant")

	var entries []actionlog.Entry
	var err error
	h.serialize(func() { entries, err = h.service.Logs(ctx, participantID) })
	if err != nil {
		h.fail(ctx, w, "log listing", err)
		return
	}
	if entries == nil {
		entries = []actionlog.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, LogsResponse{Entries: entries})
}

// HandleReloadPolicy handles POST /policy/reload.
func (h *Handler) HandleReloadPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cfg *policy.Config
	var found bool
	var err error
	h.serialize(func() { cfg, found, err = h.service.ReloadPolicy(ctx) })
	if err != nil {
		h.fail(ctx, w, "policy reload", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PolicyResponse{Policy: cfg, Found: found})
}
