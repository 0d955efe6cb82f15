package requests

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	items map[string]ServiceRequest
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]ServiceRequest)}
}

func (f *fakeRepo) Create(ctx context.Context, sr ServiceRequest) error {
	f.items[sr.ID] = sr
	return nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]ServiceRequest, error) {
	out := make([]ServiceRequest, 0)
	for _, sr := range f.items {
		if filter.Status != "" && sr.Status != filter.Status {
			continue
		}
		if filter.IsProcessed != nil && sr.IsProcessed != *filter.IsProcessed {
			continue
		}
		out = append(out, sr)
	}
	return out, nil
}

func (f *fakeRepo) Count(ctx context.Context, filter ListFilter) (int64, error) {
	items, _ := f.List(ctx, filter, 0, 0)
	return int64(len(items)), nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (ServiceRequest, error) {
	sr, ok := f.items[id]
	if !ok {
		return ServiceRequest{}, mongo.ErrNoDocuments
	}
	return sr, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id, from, to string, processed bool, now time.Time) (ServiceRequest, error) {
	sr, ok := f.items[id]
	if !ok || sr.Status != from {
		return ServiceRequest{}, mongo.ErrNoDocuments
	}
	sr.Status = to
	sr.IsProcessed = processed
	sr.UpdatedAt = now
	f.items[id] = sr
	return sr, nil
}

func price(v float64) *float64 { return &v }

func validCreate() CreateRequest {
	return CreateRequest{
		FullName:             "Aziz Karimov",
		EmailAddress:         "aziz@example.com",
		PhoneNumber:          "+998901234567",
		ServicesNeeded:       []ServiceItem{{Name: "Registration", Price: price(150)}},
		DetailedRequirements: "Need help registering a residence permit.",
	}
}

func TestCreateDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC, nil)

	sr, err := svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sr.Status != StatusPending {
		t.Fatalf("status = %q, want pending", sr.Status)
	}
	if sr.IsProcessed {
		t.Fatalf("new request must not be processed")
	}
	if sr.CountryCode != "+998" {
		t.Fatalf("country code = %q, want default +998", sr.CountryCode)
	}
}

func TestStatusMachine(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusInProgress, false},
		{StatusCompleted, StatusPending, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.ok {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestUpdateStatusWalksTheMachine(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC, nil)
	ctx := context.Background()

	sr, err := svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sr, err = svc.UpdateStatus(ctx, sr.ID, StatusInProgress)
	if err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	if sr.IsProcessed {
		t.Fatalf("in_progress is not terminal, is_processed must stay false")
	}

	sr, err = svc.UpdateStatus(ctx, sr.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if !sr.IsProcessed {
		t.Fatalf("completed request must be marked processed")
	}

	if _, err := svc.UpdateStatus(ctx, sr.ID, StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of terminal state, got %v", err)
	}
}

func TestUpdateStatusRejectsSkippingAhead(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC, nil)
	ctx := context.Background()

	sr, err := svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, sr.ID, StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending -> completed, got %v", err)
	}
}

func TestUpdateStatusUnknownID(t *testing.T) {
	svc := NewService(newFakeRepo(), time.UTC, nil)

	_, err := svc.UpdateStatus(context.Background(), "missing", StatusInProgress)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newFakeRepo(), time.UTC, nil)

	_, err := svc.UpdateStatus(context.Background(), "any", "archived")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
