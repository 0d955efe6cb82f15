package guides

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cap-ma/helperinfo/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound        = errors.New("guide not found")
	ErrSlugExists      = errors.New("slug already exists")
	ErrInvalidSlug     = errors.New("invalid slug")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidLang     = errors.New("invalid language")
	ErrNoTranslations  = errors.New("guide needs at least one translation")
)

const (
	// RelatedLimit caps how many same-category guides a detail payload carries.
	RelatedLimit = 3
	// highlightLimit caps the featured and popular shortcut lists.
	highlightLimit = 6
	// wordsPerMinute drives the reading-time estimate.
	wordsPerMinute = 200
)

type Service struct {
	repo        Repository
	defaultLang string
	location    *time.Location
}

func NewService(repo Repository, defaultLang string, location *time.Location) *Service {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &Service{
		repo:        repo,
		defaultLang: defaultLang,
		location:    location,
	}
}

// ReadingTime estimates minutes to read at 200 words per minute, never
// below one. Words are counted on the raw content, markup included.
func ReadingTime(content string) int {
	minutes := len(strings.Fields(content)) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// NormalizeLang lowercases a requested language code and drops anything
// outside the supported set. An unknown language is not an error; the
// resolver falls back instead.
func (s *Service) NormalizeLang(raw string) string {
	lang := strings.ToLower(strings.TrimSpace(raw))
	if lang == "" || !IsSupportedLang(lang) {
		return s.defaultLang
	}
	return lang
}

func (s *Service) summary(g Guide, lang string) Summary {
	tr, resolved, _ := ResolveTranslation(g, lang, s.defaultLang)
	return Summary{
		ID:               g.ID,
		Title:            tr.Title,
		Slug:             g.Slug,
		Category:         g.Category,
		ShortDescription: tr.ShortDescription,
		FeaturedImage:    g.FeaturedImage,
		IsFeatured:       g.IsFeatured,
		PublicationDate:  g.PublicationDate,
		ViewCount:        g.ViewCount,
		Likes:            g.Likes,
		Lang:             resolved,
		ReadingTime:      ReadingTime(tr.Content),
	}
}

func (s *Service) summaries(items []Guide, lang string) []Summary {
	out := make([]Summary, 0, len(items))
	for _, g := range items {
		out = append(out, s.summary(g, lang))
	}
	return out
}

// Create persists a new guide together with its initial translations.
// Without an explicit slug one is allocated from the title; an explicit
// slug is used verbatim and a collision surfaces as ErrSlugExists.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Guide, error) {
	req.Category = strings.TrimSpace(req.Category)
	if !IsValidCategory(req.Category) {
		return Guide{}, ErrInvalidCategory
	}
	if len(req.Translations) == 0 {
		return Guide{}, ErrNoTranslations
	}
	for lang := range req.Translations {
		if !IsSupportedLang(lang) {
			return Guide{}, ErrInvalidLang
		}
	}

	now := time.Now().In(s.location)

	isPublished := true
	if req.IsPublished != nil {
		isPublished = *req.IsPublished
	}
	isFeatured := false
	if req.IsFeatured != nil {
		isFeatured = *req.IsFeatured
	}
	publicationDate := now
	if req.PublicationDate != nil {
		publicationDate = req.PublicationDate.In(s.location)
	}

	g := Guide{
		ID:              primitive.NewObjectID().Hex(),
		Category:        req.Category,
		FeaturedImage:   strings.TrimSpace(req.FeaturedImage),
		IsPublished:     isPublished,
		IsFeatured:      isFeatured,
		PublicationDate: publicationDate,
		Translations:    req.Translations,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if explicit := strings.TrimSpace(req.Slug); explicit != "" {
		slug := utils.Slugify(explicit)
		if slug == "" {
			return Guide{}, ErrInvalidSlug
		}
		g.Slug = slug
		if err := s.repo.Insert(ctx, g); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return Guide{}, ErrSlugExists
			}
			return Guide{}, err
		}
		return g, nil
	}

	tr, _, ok := ResolveTranslation(g, s.defaultLang, s.defaultLang)
	if !ok {
		return Guide{}, ErrNoTranslations
	}
	base := utils.Slugify(tr.Title)
	if base == "" {
		return Guide{}, ErrInvalidSlug
	}
	return insertWithUniqueSlug(ctx, s.repo, g, base)
}

// Update changes the mutable attributes. The slug is deliberately not
// updatable: it is assigned once and stays stable for the guide's life.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Guide, error) {
	id = strings.TrimSpace(id)
	set := bson.M{"updated_at": time.Now().In(s.location)}

	if req.Category != "" {
		category := strings.TrimSpace(req.Category)
		if !IsValidCategory(category) {
			return Guide{}, ErrInvalidCategory
		}
		set["category"] = category
	}
	if req.FeaturedImage != nil {
		set["featured_image"] = strings.TrimSpace(*req.FeaturedImage)
	}
	if req.IsPublished != nil {
		set["is_published"] = *req.IsPublished
	}
	if req.IsFeatured != nil {
		set["is_featured"] = *req.IsFeatured
	}
	if req.PublicationDate != nil {
		set["publication_date"] = req.PublicationDate.In(s.location)
	}
	for lang, tr := range req.Translations {
		if !IsSupportedLang(lang) {
			return Guide{}, ErrInvalidLang
		}
		set["translations."+lang] = tr
	}

	updated, err := s.repo.Update(ctx, id, set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Guide{}, ErrNotFound
		}
		return Guide{}, err
	}
	return updated, nil
}

// PutTranslation upserts one language's field set for an existing guide.
func (s *Service) PutTranslation(ctx context.Context, id, lang string, tr Translation) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !IsSupportedLang(lang) {
		return ErrInvalidLang
	}
	err := s.repo.PutTranslation(ctx, strings.TrimSpace(id), lang, tr, time.Now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// GetTranslation exposes a single language variant, with no fallback.
func (s *Service) GetTranslation(ctx context.Context, id, lang string) (Translation, error) {
	g, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Translation{}, ErrNotFound
		}
		return Translation{}, err
	}
	tr, ok := g.Translations[strings.ToLower(strings.TrimSpace(lang))]
	if !ok {
		return Translation{}, ErrNotFound
	}
	return tr, nil
}

func (s *Service) ListPublished(ctx context.Context, filter ListFilter, lang string, ordering Ordering, page, pageSize int64) ([]Summary, int64, error) {
	filter.PublishedOnly = true
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)
	lang = s.NormalizeLang(lang)

	items, err := s.repo.List(ctx, filter, ordering, lang, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return s.summaries(items, lang), total, nil
}

func (s *Service) ListAdmin(ctx context.Context, filter ListFilter, ordering Ordering, limit, offset int64) ([]Guide, int64, error) {
	filter.PublishedOnly = false
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)

	items, err := s.repo.List(ctx, filter, ordering, s.defaultLang, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Featured returns up to six featured published guides, newest first.
func (s *Service) Featured(ctx context.Context, lang string) ([]Summary, error) {
	featured := true
	lang = s.NormalizeLang(lang)
	items, err := s.repo.List(ctx,
		ListFilter{PublishedOnly: true, IsFeatured: &featured},
		OrderPublicationDateDesc, lang, highlightLimit, 0)
	if err != nil {
		return nil, err
	}
	return s.summaries(items, lang), nil
}

// Popular returns up to six published guides by view count.
func (s *Service) Popular(ctx context.Context, lang string) ([]Summary, error) {
	lang = s.NormalizeLang(lang)
	items, err := s.repo.List(ctx,
		ListFilter{PublishedOnly: true},
		OrderViewCountDesc, lang, highlightLimit, 0)
	if err != nil {
		return nil, err
	}
	return s.summaries(items, lang), nil
}

// GetDetail resolves a published guide by slug, bumps its view counter
// (durably, before returning), renders the content against baseURL and
// attaches up to RelatedLimit same-category published guides. Unknown and
// unpublished slugs are indistinguishable: both are ErrNotFound.
func (s *Service) GetDetail(ctx context.Context, slug, lang, baseURL string) (Detail, error) {
	g, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug), true)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, err
	}

	if err := s.repo.IncrementViewCount(ctx, g.ID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return Detail{}, err
	}
	g.ViewCount++

	lang = s.NormalizeLang(lang)
	tr, _, ok := ResolveTranslation(g, lang, s.defaultLang)
	if !ok {
		// creation enforces at least one translation; treat the impossible
		// state like a missing guide
		return Detail{}, ErrNotFound
	}

	related, err := s.repo.ListRelated(ctx, g.Category, g.ID, RelatedLimit)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{
		Summary:         s.summary(g, lang),
		Content:         RenderContent(tr.Content, baseURL),
		MetaDescription: tr.MetaDescription,
		Keywords:        tr.Keywords,
		Related:         s.summaries(related, lang),
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
	return detail, nil
}

// Like bumps the like counter of a published guide and returns the new
// value. Unpublished guides 404 like missing ones.
func (s *Service) Like(ctx context.Context, id string) (int64, error) {
	likes, err := s.repo.IncrementLikes(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return likes, nil
}
