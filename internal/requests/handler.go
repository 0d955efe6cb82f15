package requests

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cap-ma/helperinfo/internal/httpx"
	"github.com/cap-ma/helperinfo/internal/middleware"
	"github.com/cap-ma/helperinfo/internal/transport"
	"github.com/cap-ma/helperinfo/internal/validation"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("service request create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("service request create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	sr, err := h.service.Create(ctx, req)
	if err != nil {
		log.Error("service request create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	// delivery is best-effort: the request is already durable and a failed
	// notification must never surface to the submitter
	go func(created ServiceRequest) {
		notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer notifyCancel()
		if err := h.service.NotifyNewRequest(notifyCtx, created); err != nil {
			h.log.Warn("service request create: notification failed",
				slog.String("request_id", created.ID),
				slog.String("error", err.Error()),
			)
		}
	}(sr)

	log.Info("service request create: ok", slog.String("service_request_id", sr.ID))
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "service request submitted",
		"id":      sr.ID,
	})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin request list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := ListFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("is_processed")); raw != "" {
		processed, err := strconv.ParseBool(raw)
		if err != nil {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"is_processed": "boolean"})
			return
		}
		filter.IsProcessed = &processed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.ListAdmin(ctx, filter, limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"status": "oneof"})
			return
		}
		log.Error("admin request list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin request list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (h *Handler) AdminGetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin request get: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sr, err := h.service.GetAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin request get: not found", slog.String("service_request_id", id))
			transport.WriteError(w, http.StatusNotFound, "service request not found", nil)
			return
		}
		log.Error("admin request get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin request get: ok", slog.String("service_request_id", id))
	transport.WriteJSON(w, http.StatusOK, sr)
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin request status: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req AdminStatusUpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin request status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("admin request status: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sr, err := h.service.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"status": "oneof"})
		case errors.Is(err, ErrInvalidTransition):
			log.Warn("admin request status: invalid transition", slog.String("service_request_id", id), slog.String("status", req.Status))
			transport.WriteError(w, http.StatusBadRequest, "invalid status transition", map[string]string{"status": "transition"})
		case errors.Is(err, ErrNotFound):
			log.Warn("admin request status: not found", slog.String("service_request_id", id))
			transport.WriteError(w, http.StatusNotFound, "service request not found", nil)
		default:
			log.Error("admin request status: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("admin request status: ok", slog.String("service_request_id", id), slog.String("status", sr.Status))
	transport.WriteJSON(w, http.StatusOK, sr)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
