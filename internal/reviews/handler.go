package reviews

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
		log.Warn("review create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("review create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	review, err := h.service.Create(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidService) {
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"service_used": "oneof"})
			return
		}
		log.Error("review create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("review create: ok", slog.String("review_id", review.ID))
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "review submitted for moderation",
		"id":      review.ID,
	})
}

func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	page, pageSize, err := httpx.ParsePage(r.URL.Query(), 12, 100)
	if err != nil {
		log.Warn("reviews list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	ordering := ParseOrdering(r.URL.Query().Get("ordering"))

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.ListApproved(ctx, filter, ordering, page, pageSize)
	if err != nil {
		if errors.Is(err, ErrInvalidService) {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"service_used": "oneof"})
			return
		}
		log.Error("reviews list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("reviews list: ok", slog.Int("count", len(items)))
	transport.WritePage(w, items, total, page, pageSize)
}

func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.Featured(ctx)
	if err != nil {
		log.Error("reviews featured: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	votes, err := h.service.MarkHelpful(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("review helpful: not found", slog.String("review_id", id))
			transport.WriteError(w, http.StatusNotFound, "review not found", nil)
			return
		}
		log.Error("review helpful: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("review helpful: ok", slog.String("review_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]int64{"helpful_votes": votes})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin reviews list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("is_approved")); raw != "" {
		approved, perr := strconv.ParseBool(raw)
		if perr != nil {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"is_approved": "boolean"})
			return
		}
		filter.IsApproved = &approved
	}
	ordering := ParseOrdering(r.URL.Query().Get("ordering"))

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.ListAdmin(ctx, filter, ordering, limit, offset)
	if err != nil {
		log.Error("admin reviews list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin reviews list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (h *Handler) AdminModerate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req AdminModerationRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin review moderate: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	review, err := h.service.Moderate(ctx, id, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin review moderate: not found", slog.String("review_id", id))
			transport.WriteError(w, http.StatusNotFound, "review not found", nil)
			return
		}
		log.Error("admin review moderate: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin review moderate: ok", slog.String("review_id", id))
	transport.WriteJSON(w, http.StatusOK, review)
}

func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (ListFilter, bool) {
	filter := ListFilter{
		ServiceUsed: strings.TrimSpace(r.URL.Query().Get("service_used")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("rating")); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil || rating < 1 || rating > 5 {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"rating": "min=1,max=5"})
			return ListFilter{}, false
		}
		filter.Rating = rating
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("is_verified")); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"is_verified": "boolean"})
			return ListFilter{}, false
		}
		filter.IsVerified = &verified
	}

	return filter, true
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
