package requests

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("service request not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Notifier interface {
	SendServiceRequestNotification(ctx context.Context, sr ServiceRequest) error
}

type Service struct {
	repo     Repository
	location *time.Location
	notifier Notifier
}

func NewService(repo Repository, location *time.Location, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		location: location,
		notifier: notifier,
	}
}

// Create persists an intake submission. Requests always start pending;
// the payload is frozen at this point and only the status moves later.
func (s *Service) Create(ctx context.Context, req CreateRequest) (ServiceRequest, error) {
	countryCode := strings.TrimSpace(req.CountryCode)
	if countryCode == "" {
		countryCode = defaultCountryCode
	}

	services := make([]ServiceItem, 0, len(req.ServicesNeeded))
	for _, item := range req.ServicesNeeded {
		services = append(services, ServiceItem{
			Name:  strings.TrimSpace(item.Name),
			Price: item.Price,
		})
	}

	now := time.Now().In(s.location)
	sr := ServiceRequest{
		ID:                    primitive.NewObjectID().Hex(),
		FullName:              strings.TrimSpace(req.FullName),
		EmailAddress:          strings.TrimSpace(req.EmailAddress),
		PhoneNumber:           strings.TrimSpace(req.PhoneNumber),
		CountryCode:           countryCode,
		ServicesNeeded:        services,
		Location:              strings.TrimSpace(req.Location),
		EstimatedBudget:       strings.TrimSpace(req.EstimatedBudget),
		DetailedRequirements:  strings.TrimSpace(req.DetailedRequirements),
		AdditionalInformation: strings.TrimSpace(req.AdditionalInformation),
		BusinessType:          strings.TrimSpace(req.BusinessType),
		BusinessRequirements:  strings.TrimSpace(req.BusinessRequirements),
		Status:                StatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.repo.Create(ctx, sr); err != nil {
		return ServiceRequest{}, err
	}
	return sr, nil
}

func (s *Service) ListAdmin(ctx context.Context, filter ListFilter, limit, offset int64) ([]ServiceRequest, int64, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}

	items, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) GetAdminByID(ctx context.Context, id string) (ServiceRequest, error) {
	sr, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ServiceRequest{}, ErrNotFound
		}
		return ServiceRequest{}, err
	}
	return sr, nil
}

// UpdateStatus applies one step of the status machine. The store update is
// conditioned on the status read here, so a transition raced by another
// admin comes back as ErrInvalidTransition rather than overwriting it.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (ServiceRequest, error) {
	id = strings.TrimSpace(id)
	status = strings.ToLower(strings.TrimSpace(status))
	if !IsValidStatus(status) {
		return ServiceRequest{}, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ServiceRequest{}, ErrNotFound
		}
		return ServiceRequest{}, err
	}
	if !CanTransition(current.Status, status) {
		return ServiceRequest{}, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, status, isTerminal(status), time.Now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ServiceRequest{}, ErrInvalidTransition
		}
		return ServiceRequest{}, err
	}
	return updated, nil
}

func (s *Service) NotifyNewRequest(ctx context.Context, sr ServiceRequest) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.SendServiceRequestNotification(ctx, sr)
}
