package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"changeflow/internal/audit"
	"changeflow/internal/change/models"
	"changeflow/internal/change/service"
	id "changeflow/pkg/domain"
	dErrors "changeflow/pkg/domain-errors"
	strutil "changeflow/pkg/platform/strings"
	"changeflow/pkg/requestcontext"
)

// Service defines the interface for change-request operations.
type Service interface {
	CreateDraft(ctx context.Context, payload models.DraftPayload, actorID id.UserID) (*models.ChangeRequest, error)
	UpdateDraft(ctx context.Context, changeID id.ChangeID, update models.DraftUpdate, actorID id.UserID) (*models.ChangeRequest, error)
	Get(ctx context.Context, changeID id.ChangeID) (*models.ChangeRequest, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.ChangeRequest, error)
	Submit(ctx context.Context, changeID id.ChangeID, actorID id.UserID, params service.SubmitParams) (*models.ChangeRequest, error)
	RecordDecision(ctx context.Context, changeID id.ChangeID, actorID id.UserID, approve bool, comment string) (*models.ChangeRequest, error)
	RevertToDraft(ctx context.Context, changeID id.ChangeID, actorID id.UserID, reason string) (*models.ChangeRequest, error)
	Schedule(ctx context.Context, changeID id.ChangeID, actorID id.UserID, plannedStart, plannedEnd time.Time) (*models.ChangeRequest, error)
	Start(ctx context.Context, changeID id.ChangeID, actorID id.UserID, privileged bool) (*models.ChangeRequest, error)
	Complete(ctx context.Context, changeID id.ChangeID, actorID id.UserID, privileged bool) (*models.ChangeRequest, error)
	Close(ctx context.Context, changeID id.ChangeID, actorID id.UserID) (*models.ChangeRequest, error)
	Cancel(ctx context.Context, changeID id.ChangeID, actorID id.UserID, reason string) (*models.ChangeRequest, error)
	SoftDelete(ctx context.Context, changeID id.ChangeID, actorID id.UserID, reason string) (*models.ChangeRequest, error)
	Restore(ctx context.Context, changeID id.ChangeID, actorID id.UserID, privileged bool) (*models.ChangeRequest, error)
}

// Privileges answers whether an actor may perform admin-gated operations.
type Privileges interface {
	IsPrivileged(ctx context.Context, userID id.UserID) bool
}

// AuditReader exposes the per-entity audit trail.
type AuditReader interface {
	ListByEntity(ctx context.Context, entityType, entityID string) ([]audit.Event, error)
}

// Handler handles change-request endpoints.
type Handler struct {
	logger     *slog.Logger
	changes    Service
	privileges Privileges
	auditTrail AuditReader
}

// New creates a new change Handler.
func New(changes Service, privileges Privileges, auditTrail AuditReader, logger *slog.Logger) *Handler {
	return &Handler{
		logger:     logger,
		changes:    changes,
		privileges: privileges,
		auditTrail: auditTrail,
	}
}

// Register registers the change routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/changes", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{changeID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Patch("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Get("/audit", h.handleAuditTrail)
			r.Post("/submit", h.handleSubmit)
			r.Post("/decision", h.handleDecision)
			r.Post("/revert", h.handleRevert)
			r.Post("/schedule", h.handleSchedule)
			r.Post("/start", h.handleStart)
			r.Post("/complete", h.handleComplete)
			r.Post("/close", h.handleClose)
			r.Post("/cancel", h.handleCancel)
			r.Post("/restore", h.handleRestore)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload models.DraftPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	cr, err := h.changes.CreateDraft(ctx, payload, requestcontext.ActorID(ctx))
	if err != nil {
		h.logFailure(ctx, "create draft", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(cr))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	changeID, err := h.changeID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	cr, err := h.changes.Get(r.Context(), changeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(cr))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := models.ListFilter{
		RequesterID: query.Get("requester_id"),
	}
	if status := query.Get("status"); status != "" {
		filter.Status = models.ParseStatus(status)
	}
	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		filter.Limit = n
	}
	if query.Get("include_deleted") == "true" {
		// Only privileged actors may see soft-deleted records.
		filter.IncludeDeleted = h.privileges.IsPrivileged(ctx, requestcontext.ActorID(ctx))
	}

	changes, err := h.changes.List(ctx, filter)
	if err != nil {
		h.logFailure(ctx, "list changes", err)
		writeError(w, err)
		return
	}
	out := make([]changeResponse, 0, len(changes))
	for _, cr := range changes {
		out = append(out, toResponse(cr))
	}
	writeJSON(w, http.StatusOK, map[string]any{"changes": out})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	changeID, err := h.changeID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var update models.DraftUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	cr, err := h.changes.UpdateDraft(ctx, changeID, update, requestcontext.ActorID(ctx))
	if err != nil {
		h.logFailure(ctx, "update draft", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(cr))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	changeID, err := h.changeID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	// Clients paste approver lists; strip padding and repeats before the
	// ids are parsed so "a, a " does not fail or double-assign.
	normalized := strutil.DedupeAndTrim(req.Approvers)
	approvers := make([]id.UserID, 0, len(normalized))
	for _, raw := range normalized {
		approverID, err := id.ParseUserID(raw)
		if err != nil {
			writeError(w, dErrors.Newf(dErrors.CodeBadRequest, "approver %q is not a valid user id", raw))
			return
		}
		approvers = append(approvers, approverID)
	}

	cr, err := h.changes.Submit(ctx, changeID, requestcontext.ActorID(ctx), service.SubmitParams{
		ApproverIDs: approvers,
		Strategy:    req.Strategy,
		Reason:      req.Reason,
	})
	if err != nil {
		h.logFailure(ctx, "submit change", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(cr))
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	changeID, err := h.changeID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Approve == nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "approve must be true or false"))
		return
	}

	cr, err := h.changes.RecordDecision(ctx, changeID, requestcontext.ActorID(ctx), *req.Approve, req.Comment)
	if err != nil {
		h.logFailure(ctx, "record decision", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(cr))
}

func (h *Handler) handleRevert(w http.ResponseWriter, r *http.Request) {
	h.reasoned(w, r, "revert change", h.changes.RevertToDraft)
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	changeID, err := h.changeID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	cr, err := h.changes.Schedule(ctx, changeID, requestcontext.ActorID(ctx), req.PlannedStart, req.PlannedEnd)
	if err != nil {
		h.logFailure(ctx, "schedule change", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(cr))
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.privilegeChecked(w, r, "start implementation", h.changes.Start)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.privilegeChecked(w, r, "complete implementation", h.changes.Complete)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	changeID, err := h.changeID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	cr, err := h.changes.Close(ctx, changeID, requestcontext.ActorID(ctx))
	if err != nil {
		h.logFailure(ctx, "close change", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(cr))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.reasoned(w, r, "cancel change", h.changes.Cancel)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	h.reasoned(w, r, "delete change", h.changes.SoftDelete)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	h.privilegeChecked(w, r, "restore change", h.changes.Restore)
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	changeID, err := h.changeID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	// The trail survives soft deletion, but its existence must not leak: the
	// change has to be visible to the caller first.
	if _, err := h.changes.Get(ctx, changeID); err != nil {
		if !h.privileges.IsPrivileged(ctx, requestcontext.ActorID(ctx)) {
			writeError(w, err)
			return
		}
	}
	events, err := h.auditTrail.ListByEntity(ctx, "change_request", changeID.String())
	if err != nil {
		h.logFailure(ctx, "list audit trail", err)
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit trail"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// reasoned handles the verbs whose only body field is an optional reason.
func (h *Handler) reasoned(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(ctx context.Context, changeID id.ChangeID, actorID id.UserID, reason string) (*models.ChangeRequest, error),
) {
	ctx := r.Context()
	changeID, err := h.changeID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req reasonRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	cr, err := fn(ctx, changeID, requestcontext.ActorID(ctx), req.Reason)
	if err != nil {
		h.logFailure(ctx, op, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(cr))
}

// privilegeChecked handles the verbs that take a privileged flag resolved
// from the actor's role.
func (h *Handler) privilegeChecked(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(ctx context.Context, changeID id.ChangeID, actorID id.UserID, privileged bool) (*models.ChangeRequest, error),
) {
	ctx := r.Context()
	changeID, err := h.changeID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	actorID := requestcontext.ActorID(ctx)
	cr, err := fn(ctx, changeID, actorID, h.privileges.IsPrivileged(ctx, actorID))
	if err != nil {
		h.logFailure(ctx, op, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(cr))
}

func (h *Handler) changeID(r *http.Request) (id.ChangeID, error) {
	raw := chi.URLParam(r, "changeID")
	changeID, err := id.ParseChangeID(raw)
	if err != nil {
		return id.ChangeID{}, dErrors.New(dErrors.CodeBadRequest, "invalid change id")
	}
	return changeID, nil
}

func (h *Handler) logFailure(ctx context.Context, op string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		h.logger.ErrorContext(ctx, "operation failed",
			"operation", op,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	h.logger.WarnContext(ctx, "operation rejected",
		"operation", op,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
