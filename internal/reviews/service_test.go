package reviews

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	items map[string]Review
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]Review)}
}

func (f *fakeRepo) Create(ctx context.Context, review Review) error {
	f.items[review.ID] = review
	return nil
}

func (f *fakeRepo) matches(review Review, filter ListFilter) bool {
	if filter.ApprovedOnly && !review.IsApproved {
		return false
	}
	if !filter.ApprovedOnly && filter.IsApproved != nil && review.IsApproved != *filter.IsApproved {
		return false
	}
	if filter.Rating != 0 && review.Rating != filter.Rating {
		return false
	}
	if filter.ServiceUsed != "" && review.ServiceUsed != filter.ServiceUsed {
		return false
	}
	if filter.IsVerified != nil && review.IsVerified != *filter.IsVerified {
		return false
	}
	if filter.IsFeatured != nil && review.IsFeatured != *filter.IsFeatured {
		return false
	}
	return true
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter, ordering Ordering, limit, offset int64) ([]Review, error) {
	out := make([]Review, 0)
	for _, review := range f.items {
		if f.matches(review, filter) {
			out = append(out, review)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch ordering.field() {
		case "rating":
			less = out[i].Rating < out[j].Rating
		case "helpful_votes":
			less = out[i].HelpfulVotes < out[j].HelpfulVotes
		default:
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if ordering.descending() {
			return !less
		}
		return less
	})
	if offset >= int64(len(out)) {
		return nil, nil
	}
	out = out[offset:]
	if limit < int64(len(out)) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) Count(ctx context.Context, filter ListFilter) (int64, error) {
	var total int64
	for _, review := range f.items {
		if f.matches(review, filter) {
			total++
		}
	}
	return total, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (Review, error) {
	review, ok := f.items[id]
	if !ok {
		return Review{}, mongo.ErrNoDocuments
	}
	return review, nil
}

func (f *fakeRepo) IncrementHelpfulVotes(ctx context.Context, id string) (int64, error) {
	review, ok := f.items[id]
	if !ok || !review.IsApproved {
		return 0, mongo.ErrNoDocuments
	}
	review.HelpfulVotes++
	f.items[id] = review
	return review.HelpfulVotes, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, set bson.M) (Review, error) {
	review, ok := f.items[id]
	if !ok {
		return Review{}, mongo.ErrNoDocuments
	}
	if v, ok := set["is_approved"]; ok {
		review.IsApproved = v.(bool)
	}
	if v, ok := set["is_featured"]; ok {
		review.IsFeatured = v.(bool)
	}
	if v, ok := set["is_verified"]; ok {
		review.IsVerified = v.(bool)
	}
	f.items[id] = review
	return review, nil
}

func validReview() CreateRequest {
	return CreateRequest{
		ReviewerName: "Dilnoza",
		Content:      "The apartment search took two days instead of two weeks.",
		Rating:       5,
		ServiceUsed:  "apartment_finding",
	}
}

func TestCreateStartsUnmoderated(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC)

	review, err := svc.Create(context.Background(), validReview())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if review.IsApproved || review.IsFeatured || review.IsVerified {
		t.Fatalf("moderation flags must start false: %+v", review)
	}
	if review.HelpfulVotes != 0 {
		t.Fatalf("helpful_votes must start at 0")
	}
}

func TestCreateRejectsUnknownService(t *testing.T) {
	svc := NewService(newFakeRepo(), time.UTC)

	req := validReview()
	req.ServiceUsed = "time_travel"
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, ErrInvalidService) {
		t.Fatalf("expected ErrInvalidService, got %v", err)
	}
}

func TestListApprovedHidesPending(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC)
	ctx := context.Background()

	pending, err := svc.Create(ctx, validReview())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	approvedReq := validReview()
	approvedReq.ReviewerName = "Sardor"
	approved, err := svc.Create(ctx, approvedReq)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	yes := true
	if _, err := svc.Moderate(ctx, approved.ID, AdminModerationRequest{IsApproved: &yes}); err != nil {
		t.Fatalf("moderate: %v", err)
	}

	items, total, err := svc.ListApproved(ctx, ListFilter{}, OrderCreatedAtDesc, 1, 12)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected only the approved review, got total=%d len=%d", total, len(items))
	}
	if items[0].ID == pending.ID {
		t.Fatalf("pending review leaked into the public listing")
	}
}

func TestMarkHelpfulApprovedOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC)
	ctx := context.Background()

	review, err := svc.Create(ctx, validReview())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.MarkHelpful(ctx, review.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unapproved review, got %v", err)
	}

	yes := true
	if _, err := svc.Moderate(ctx, review.ID, AdminModerationRequest{IsApproved: &yes}); err != nil {
		t.Fatalf("moderate: %v", err)
	}
	votes, err := svc.MarkHelpful(ctx, review.ID)
	if err != nil {
		t.Fatalf("helpful: %v", err)
	}
	if votes != 1 {
		t.Fatalf("expected helpful_votes 1, got %d", votes)
	}
}

func TestFeaturedLimitAndFilter(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC)
	ctx := context.Background()

	yes := true
	for i := 0; i < 8; i++ {
		review, err := svc.Create(ctx, validReview())
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		mod := AdminModerationRequest{IsApproved: &yes}
		if i < 7 {
			mod.IsFeatured = &yes
		}
		if _, err := svc.Moderate(ctx, review.ID, mod); err != nil {
			t.Fatalf("moderate %d: %v", i, err)
		}
	}

	items, err := svc.Featured(ctx)
	if err != nil {
		t.Fatalf("featured: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("expected 6 featured reviews, got %d", len(items))
	}
}

func TestDaysAgo(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC)
	ctx := context.Background()

	review, err := svc.Create(ctx, validReview())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	review.CreatedAt = time.Now().UTC().AddDate(0, 0, -10)
	review.IsApproved = true
	repo.items[review.ID] = review

	items, _, err := svc.ListApproved(ctx, ListFilter{}, OrderCreatedAtDesc, 1, 12)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].DaysAgo != 10 {
		t.Fatalf("expected days_ago 10, got %+v", items)
	}
}
