package guides

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cap-ma/helperinfo/internal/cache"
	"github.com/cap-ma/helperinfo/internal/httpx"
	"github.com/cap-ma/helperinfo/internal/middleware"
	"github.com/cap-ma/helperinfo/internal/transport"
	"github.com/cap-ma/helperinfo/internal/validation"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service       *Service
	val           *validation.Validator
	log           *slog.Logger
	cache         cache.Cache
	cacheTTL      time.Duration
	publicBaseURL string
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, c cache.Cache, cacheTTL time.Duration, publicBaseURL string) *Handler {
	return &Handler{
		service:       service,
		val:           val,
		log:           log,
		cache:         c,
		cacheTTL:      cacheTTL,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// baseURL decides what root-relative media references get rewritten
// against: the configured public URL when set, otherwise the request host.
func (h *Handler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	if r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func parseBoolParam(raw string) *bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	query := r.URL.Query()

	page, pageSize, err := httpx.ParsePage(query, 12, 100)
	if err != nil {
		log.Warn("guides list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := ListFilter{
		Category:   strings.TrimSpace(query.Get("category")),
		IsFeatured: parseBoolParam(query.Get("is_featured")),
		Search:     strings.TrimSpace(query.Get("search")),
	}
	ordering := ParseOrdering(query.Get("ordering"))
	lang := query.Get("lang")

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.ListPublished(ctx, filter, lang, ordering, page, pageSize)
	if err != nil {
		log.Error("guides list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("guides list: ok", slog.Int("count", len(items)))
	transport.WritePage(w, items, total, page, pageSize)
}

func (h *Handler) PublicDetail(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		log.Warn("guides detail: missing slug")
		transport.WriteError(w, http.StatusBadRequest, "missing slug", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	detail, err := h.service.GetDetail(ctx, slug, r.URL.Query().Get("lang"), h.baseURL(r))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("guides detail: not found", slog.String("slug", slug))
			transport.WriteError(w, http.StatusNotFound, "guide not found", nil)
			return
		}
		log.Error("guides detail: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("guides detail: ok", slog.String("slug", slug))
	transport.WriteJSON(w, http.StatusOK, detail)
}

// Featured and Popular are small fixed lists hit on every landing page
// render, so both go through the TTL cache.
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	h.cachedHighlights(w, r, "guides:featured", h.service.Featured)
}

func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	h.cachedHighlights(w, r, "guides:popular", h.service.Popular)
}

func (h *Handler) cachedHighlights(w http.ResponseWriter, r *http.Request, keyPrefix string, load func(context.Context, string) ([]Summary, error)) {
	log := h.logWithRequest(r)
	lang := h.service.NormalizeLang(r.URL.Query().Get("lang"))
	key := keyPrefix + ":" + lang

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	if cached, ok, err := h.cache.Get(ctx, key); err == nil && ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	items, err := load(ctx, lang)
	if err != nil {
		log.Error("guides highlights: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	payload := map[string]interface{}{"items": items}
	if raw, err := json.Marshal(payload); err == nil {
		if err := h.cache.Set(ctx, key, raw, h.cacheTTL); err != nil {
			log.Warn("guides highlights: cache set failed", slog.String("error", err.Error()))
		}
	}

	log.Info("guides highlights: ok", slog.String("key", key), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, payload)
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("guides like: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	likes, err := h.service.Like(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("guides like: not found", slog.String("guide_id", id))
			transport.WriteError(w, http.StatusNotFound, "guide not found", nil)
			return
		}
		log.Error("guides like: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("guides like: ok", slog.String("guide_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]int64{"likes": likes})
}

func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin guides create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("admin guides create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	g, err := h.service.Create(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlugExists):
			log.Warn("admin guides create: slug exists")
			transport.WriteError(w, http.StatusConflict, "slug already exists", nil)
		case errors.Is(err, ErrInvalidSlug):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"slug": "invalid"})
		case errors.Is(err, ErrInvalidCategory):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"category": "oneof"})
		case errors.Is(err, ErrInvalidLang):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"translations": "lang"})
		case errors.Is(err, ErrNoTranslations):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"translations": "min"})
		default:
			log.Error("admin guides create: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("admin guides create: ok", slog.String("guide_id", g.ID), slog.String("slug", g.Slug))
	transport.WriteJSON(w, http.StatusCreated, g)
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin guides update: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin guides update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("admin guides update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	g, err := h.service.Update(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			log.Warn("admin guides update: not found", slog.String("guide_id", id))
			transport.WriteError(w, http.StatusNotFound, "guide not found", nil)
		case errors.Is(err, ErrInvalidCategory):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"category": "oneof"})
		case errors.Is(err, ErrInvalidLang):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"translations": "lang"})
		default:
			log.Error("admin guides update: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("admin guides update: ok", slog.String("guide_id", id))
	transport.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) AdminPutTranslation(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	lang := strings.TrimSpace(chi.URLParam(r, "lang"))
	if id == "" || lang == "" {
		log.Warn("admin guides translation: missing id or lang")
		transport.WriteError(w, http.StatusBadRequest, "missing id or lang", nil)
		return
	}

	var tr Translation
	if err := httpx.DecodeJSON(r.Body, &tr); err != nil {
		log.Warn("admin guides translation: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(tr); err != nil {
		log.Warn("admin guides translation: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.PutTranslation(ctx, id, lang, tr); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			log.Warn("admin guides translation: not found", slog.String("guide_id", id))
			transport.WriteError(w, http.StatusNotFound, "guide not found", nil)
		case errors.Is(err, ErrInvalidLang):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"lang": "oneof"})
		default:
			log.Error("admin guides translation: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("admin guides translation: ok", slog.String("guide_id", id), slog.String("lang", lang))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) AdminGetTranslation(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	lang := strings.TrimSpace(chi.URLParam(r, "lang"))
	if id == "" || lang == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id or lang", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tr, err := h.service.GetTranslation(ctx, id, lang)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin guides translation get: not found", slog.String("guide_id", id), slog.String("lang", lang))
			transport.WriteError(w, http.StatusNotFound, "translation not found", nil)
			return
		}
		log.Error("admin guides translation get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, tr)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin guides list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := ListFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
	}
	ordering := ParseOrdering(r.URL.Query().Get("ordering"))

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.ListAdmin(ctx, filter, ordering, limit, offset)
	if err != nil {
		log.Error("admin guides list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin guides list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
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
