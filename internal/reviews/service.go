package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound       = errors.New("review not found")
	ErrInvalidService = errors.New("invalid service")
)

const featuredLimit = 6

type Service struct {
	repo     Repository
	location *time.Location
}

func NewService(repo Repository, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		location: location,
	}
}

func (s *Service) public(review Review) Public {
	days := int(time.Now().In(s.location).Sub(review.CreatedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return Public{
		ID:              review.ID,
		ReviewerName:    review.ReviewerName,
		ReviewerCountry: review.ReviewerCountry,
		ReviewerAvatar:  review.ReviewerAvatar,
		Title:           review.Title,
		Content:         review.Content,
		Rating:          review.Rating,
		ServiceUsed:     review.ServiceUsed,
		IsVerified:      review.IsVerified,
		HelpfulVotes:    review.HelpfulVotes,
		DaysAgo:         days,
		CreatedAt:       review.CreatedAt,
	}
}

func (s *Service) publics(items []Review) []Public {
	out := make([]Public, 0, len(items))
	for _, review := range items {
		out = append(out, s.public(review))
	}
	return out
}

// Create stores a new review awaiting moderation. All flags start false
// regardless of the payload; only admins flip them.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Review, error) {
	serviceUsed := strings.ToLower(strings.TrimSpace(req.ServiceUsed))
	if serviceUsed != "" && !IsValidService(serviceUsed) {
		return Review{}, ErrInvalidService
	}

	now := time.Now().In(s.location)
	review := Review{
		ID:              primitive.NewObjectID().Hex(),
		ReviewerName:    strings.TrimSpace(req.ReviewerName),
		ReviewerEmail:   strings.TrimSpace(req.ReviewerEmail),
		ReviewerCountry: strings.TrimSpace(req.ReviewerCountry),
		Title:           strings.TrimSpace(req.Title),
		Content:         strings.TrimSpace(req.Content),
		Rating:          req.Rating,
		ServiceUsed:     serviceUsed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return Review{}, err
	}
	return review, nil
}

// ListApproved is the public listing: approved reviews only, whatever
// other filters the caller adds.
func (s *Service) ListApproved(ctx context.Context, filter ListFilter, ordering Ordering, page, pageSize int64) ([]Public, int64, error) {
	filter.ApprovedOnly = true
	filter.ServiceUsed = strings.ToLower(strings.TrimSpace(filter.ServiceUsed))
	if filter.ServiceUsed != "" && !IsValidService(filter.ServiceUsed) {
		return nil, 0, ErrInvalidService
	}

	items, err := s.repo.List(ctx, filter, ordering, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return s.publics(items), total, nil
}

// Featured returns up to six approved featured reviews, newest first.
func (s *Service) Featured(ctx context.Context) ([]Public, error) {
	featured := true
	items, err := s.repo.List(ctx,
		ListFilter{ApprovedOnly: true, IsFeatured: &featured},
		OrderCreatedAtDesc, featuredLimit, 0)
	if err != nil {
		return nil, err
	}
	return s.publics(items), nil
}

// MarkHelpful bumps the helpful counter of an approved review. An
// unapproved review looks missing to voters.
func (s *Service) MarkHelpful(ctx context.Context, id string) (int64, error) {
	votes, err := s.repo.IncrementHelpfulVotes(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return votes, nil
}

func (s *Service) ListAdmin(ctx context.Context, filter ListFilter, ordering Ordering, limit, offset int64) ([]Review, int64, error) {
	filter.ApprovedOnly = false
	filter.ServiceUsed = strings.ToLower(strings.TrimSpace(filter.ServiceUsed))

	items, err := s.repo.List(ctx, filter, ordering, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Moderate patches the moderation flags; nil fields are left untouched.
func (s *Service) Moderate(ctx context.Context, id string, req AdminModerationRequest) (Review, error) {
	set := bson.M{"updated_at": time.Now().In(s.location)}
	if req.IsApproved != nil {
		set["is_approved"] = *req.IsApproved
	}
	if req.IsFeatured != nil {
		set["is_featured"] = *req.IsFeatured
	}
	if req.IsVerified != nil {
		set["is_verified"] = *req.IsVerified
	}

	updated, err := s.repo.Update(ctx, strings.TrimSpace(id), set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return updated, nil
}
