package guides

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// fakeRepo is an in-memory Repository. The mutex stands in for the
// storage-level atomicity the mongo implementation gets from $inc and the
// unique slug index.
type fakeRepo struct {
	mu     sync.Mutex
	guides map[string]Guide
	slugs  map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		guides: make(map[string]Guide),
		slugs:  make(map[string]string),
	}
}

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
}

func (f *fakeRepo) Insert(ctx context.Context, g Guide) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.slugs[g.Slug]; taken {
		return duplicateKeyErr()
	}
	f.guides[g.ID] = g
	f.slugs[g.Slug] = g.ID
	return nil
}

func (f *fakeRepo) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Guide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.slugs[slug]
	if !ok {
		return Guide{}, mongo.ErrNoDocuments
	}
	g := f.guides[id]
	if publishedOnly && !g.IsPublished {
		return Guide{}, mongo.ErrNoDocuments
	}
	return g, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (Guide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guides[id]
	if !ok {
		return Guide{}, mongo.ErrNoDocuments
	}
	return g, nil
}

func (f *fakeRepo) matches(g Guide, filter ListFilter) bool {
	if filter.PublishedOnly && !g.IsPublished {
		return false
	}
	if filter.Category != "" && g.Category != filter.Category {
		return false
	}
	if filter.IsFeatured != nil && g.IsFeatured != *filter.IsFeatured {
		return false
	}
	return true
}

func (f *fakeRepo) sorted(items []Guide, ordering Ordering, lang string) []Guide {
	sort.SliceStable(items, func(i, j int) bool {
		var less bool
		switch ordering.field() {
		case "view_count":
			less = items[i].ViewCount < items[j].ViewCount
		case "title":
			less = items[i].Translations[lang].Title < items[j].Translations[lang].Title
		default:
			less = items[i].PublicationDate.Before(items[j].PublicationDate)
		}
		if ordering.descending() {
			return !less
		}
		return less
	})
	return items
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter, ordering Ordering, lang string, limit, offset int64) ([]Guide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]Guide, 0)
	for _, g := range f.guides {
		if f.matches(g, filter) {
			items = append(items, g)
		}
	}
	items = f.sorted(items, ordering, lang)
	if offset >= int64(len(items)) {
		return nil, nil
	}
	items = items[offset:]
	if limit < int64(len(items)) {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeRepo) Count(ctx context.Context, filter ListFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, g := range f.guides {
		if f.matches(g, filter) {
			total++
		}
	}
	return total, nil
}

func (f *fakeRepo) ListRelated(ctx context.Context, category, excludeID string, limit int64) ([]Guide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]Guide, 0)
	for _, g := range f.guides {
		if g.Category == category && g.IsPublished && g.ID != excludeID {
			items = append(items, g)
		}
	}
	items = f.sorted(items, OrderPublicationDateDesc, "")
	if limit < int64(len(items)) {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeRepo) IncrementViewCount(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guides[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	g.ViewCount++
	f.guides[id] = g
	return nil
}

func (f *fakeRepo) IncrementLikes(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guides[id]
	if !ok || !g.IsPublished {
		return 0, mongo.ErrNoDocuments
	}
	g.Likes++
	f.guides[id] = g
	return g.Likes, nil
}

func (f *fakeRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.slugs[slug]
	return ok, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, set bson.M) (Guide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guides[id]
	if !ok {
		return Guide{}, mongo.ErrNoDocuments
	}
	if v, ok := set["is_published"]; ok {
		g.IsPublished = v.(bool)
	}
	if v, ok := set["is_featured"]; ok {
		g.IsFeatured = v.(bool)
	}
	if v, ok := set["category"]; ok {
		g.Category = v.(string)
	}
	f.guides[id] = g
	return g, nil
}

func (f *fakeRepo) PutTranslation(ctx context.Context, id, lang string, tr Translation, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guides[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if g.Translations == nil {
		g.Translations = make(map[string]Translation)
	}
	g.Translations[lang] = tr
	g.UpdatedAt = now
	f.guides[id] = g
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, "en", time.UTC)
}

func createReq(title string) CreateRequest {
	return CreateRequest{
		Category: CategoryDocumentation,
		Translations: map[string]Translation{
			"en": {
				Title:            title,
				ShortDescription: "short",
				Content:          "some content here",
			},
		},
	}
}

func TestCreateAllocatesSuffixedSlugs(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	want := []string{"visa-residency-guide", "visa-residency-guide-1", "visa-residency-guide-2"}
	for i, expected := range want {
		g, err := svc.Create(ctx, createReq("Visa & Residency Guide"))
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if g.Slug != expected {
			t.Fatalf("create %d: slug = %q, want %q", i, g.Slug, expected)
		}
	}
}

func TestCreateRejectsUnsluggableTitle(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), createReq("   "))
	if !errors.Is(err, ErrInvalidSlug) {
		t.Fatalf("expected ErrInvalidSlug, got %v", err)
	}
}

func TestCreateExplicitSlugConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req := createReq("First")
	req.Slug = "taken"
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}

	req2 := createReq("Second")
	req2.Slug = "taken"
	if _, err := svc.Create(ctx, req2); !errors.Is(err, ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}
}

func TestCreateDefaultsPublished(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	g, err := svc.Create(context.Background(), createReq("Defaults"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !g.IsPublished {
		t.Fatalf("expected new guide to default to published")
	}
	if g.PublicationDate.IsZero() {
		t.Fatalf("expected publication date to default to creation time")
	}
}

func TestConcurrentCreateSameTitleDistinctSlugs(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	slugs := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := svc.Create(ctx, createReq("Opening a Bank Account"))
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			slugs <- g.Slug
		}()
	}
	wg.Wait()
	close(slugs)

	seen := make(map[string]bool)
	for slug := range slugs {
		if seen[slug] {
			t.Fatalf("duplicate slug allocated: %q", slug)
		}
		seen[slug] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct slugs, got %d", n, len(seen))
	}
}

func TestGetDetailUnknownSlug(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.GetDetail(context.Background(), "unknown-slug", "en", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetDetailUnpublishedLooksMissing(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req := createReq("Draft Guide")
	unpublished := false
	req.IsPublished = &unpublished
	g, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.GetDetail(ctx, g.Slug, "en", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unpublished slug, got %v", err)
	}
}

func TestGetDetailIncrementsViewCountOncePerCall(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	g, err := svc.Create(ctx, createReq("Counted"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	detail, err := svc.GetDetail(ctx, g.Slug, "en", "")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.ViewCount != 1 {
		t.Fatalf("expected view_count 1 in response, got %d", detail.ViewCount)
	}

	if _, err := svc.GetDetail(ctx, g.Slug, "en", ""); err != nil {
		t.Fatalf("detail: %v", err)
	}
	stored, _ := repo.GetByID(ctx, g.ID)
	if stored.ViewCount != 2 {
		t.Fatalf("expected stored view_count 2, got %d", stored.ViewCount)
	}
}

func TestConcurrentViewCountNoLostUpdate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	g, err := svc.Create(ctx, createReq("Busy Guide"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetDetail(ctx, g.Slug, "en", ""); err != nil {
				t.Errorf("detail: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, _ := repo.GetByID(ctx, g.ID)
	if stored.ViewCount != 2 {
		t.Fatalf("expected view_count 2 after two concurrent views, got %d", stored.ViewCount)
	}
}

func TestGetDetailRelatedSelection(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mkReq := func(i int, category string, published bool) CreateRequest {
		req := createReq(fmt.Sprintf("Guide %c", 'A'+i))
		req.Category = category
		req.IsPublished = &published
		date := base.AddDate(0, 0, i)
		req.PublicationDate = &date
		return req
	}

	target, err := svc.Create(ctx, mkReq(0, CategoryHousing, true))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 1; i <= 5; i++ {
		if _, err := svc.Create(ctx, mkReq(i, CategoryHousing, true)); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := svc.Create(ctx, mkReq(6, CategoryHousing, false)); err != nil {
		t.Fatalf("create unpublished: %v", err)
	}
	if _, err := svc.Create(ctx, mkReq(7, CategoryHealthcare, true)); err != nil {
		t.Fatalf("create other category: %v", err)
	}

	detail, err := svc.GetDetail(ctx, target.Slug, "en", "")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}

	if len(detail.Related) != RelatedLimit {
		t.Fatalf("expected %d related guides, got %d", RelatedLimit, len(detail.Related))
	}
	for _, rel := range detail.Related {
		if rel.ID == target.ID {
			t.Fatalf("related includes the guide itself")
		}
		if rel.Category != CategoryHousing {
			t.Fatalf("related from wrong category: %s", rel.Category)
		}
	}
	// newest first: guides 5, 4, 3
	for i := 1; i < len(detail.Related); i++ {
		if detail.Related[i].PublicationDate.After(detail.Related[i-1].PublicationDate) {
			t.Fatalf("related not ordered by publication date desc")
		}
	}
}

func TestGetDetailLanguageFallback(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req := CreateRequest{
		Category: CategoryCultural,
		Translations: map[string]Translation{
			"ru": {
				Title:            "Культурная адаптация",
				ShortDescription: "кратко",
				Content:          "текст",
			},
		},
		Slug: "cultural-adaptation",
	}
	g, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	detail, err := svc.GetDetail(ctx, g.Slug, "en", "")
	if err != nil {
		t.Fatalf("expected fallback instead of failure, got %v", err)
	}
	if detail.Lang != "ru" {
		t.Fatalf("expected resolved lang ru, got %q", detail.Lang)
	}
	if detail.Title != "Культурная адаптация" {
		t.Fatalf("unexpected fallback title: %q", detail.Title)
	}
}

func TestGetTranslationIsExact(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req := CreateRequest{
		Category:     CategoryEmergency,
		Slug:         "emergency-numbers",
		Translations: map[string]Translation{"ru": {Title: "Экстренные номера", ShortDescription: "кратко", Content: "текст"}},
	}
	g, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetTranslation(ctx, g.ID, "en"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent language, got %v", err)
	}
	tr, err := svc.GetTranslation(ctx, g.ID, "ru")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tr.Title != "Экстренные номера" {
		t.Fatalf("unexpected translation: %+v", tr)
	}
}

func TestLikeRequiresPublished(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req := createReq("Liked Guide")
	unpublished := false
	req.IsPublished = &unpublished
	g, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Like(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unpublished guide, got %v", err)
	}

	published := true
	if _, err := svc.Update(ctx, g.ID, UpdateRequest{IsPublished: &published}); err != nil {
		t.Fatalf("update: %v", err)
	}
	likes, err := svc.Like(ctx, g.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if likes != 1 {
		t.Fatalf("expected likes 1, got %d", likes)
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 1},
		{199, 1},
		{200, 1},
		{399, 1},
		{401, 2},
		{1000, 5},
	}

	for _, tt := range tests {
		content := ""
		for i := 0; i < tt.words; i++ {
			content += "word "
		}
		if got := ReadingTime(content); got != tt.want {
			t.Fatalf("ReadingTime(%d words) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestListPublishedHidesDrafts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, createReq("Visible")); err != nil {
		t.Fatalf("create: %v", err)
	}
	req := createReq("Hidden")
	unpublished := false
	req.IsPublished = &unpublished
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}

	items, total, err := svc.ListPublished(ctx, ListFilter{}, "en", OrderPublicationDateDesc, 1, 12)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 published guide, got total=%d len=%d", total, len(items))
	}
	if items[0].Title != "Visible" {
		t.Fatalf("unexpected guide in listing: %q", items[0].Title)
	}
}
