package requests

import "time"

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	defaultCountryCode = "+998"
)

var validStatuses = map[string]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// allowedTransitions is the status machine: the happy path moves
// pending -> in_progress -> completed, and cancellation is reachable from
// any non-terminal state. Completed and cancelled are terminal.
var allowedTransitions = map[string][]string{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func IsValidStatus(value string) bool {
	_, ok := validStatuses[value]
	return ok
}

func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isTerminal(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// ServiceItem is one requested service. Price is a pointer so a payload
// that names a service without pricing it fails validation instead of
// silently persisting zero.
type ServiceItem struct {
	Name  string   `bson:"name" json:"name" validate:"required"`
	Price *float64 `bson:"price" json:"price" validate:"required,gte=0"`
}

// ServiceRequest is a single intake submission. The payload is immutable
// after creation; only status and is_processed move.
type ServiceRequest struct {
	ID                    string        `bson:"_id,omitempty" json:"id"`
	FullName              string        `bson:"full_name" json:"full_name"`
	EmailAddress          string        `bson:"email_address" json:"email_address"`
	PhoneNumber           string        `bson:"phone_number" json:"phone_number"`
	CountryCode           string        `bson:"country_code" json:"country_code"`
	ServicesNeeded        []ServiceItem `bson:"services_needed" json:"services_needed"`
	Location              string        `bson:"location,omitempty" json:"location,omitempty"`
	EstimatedBudget       string        `bson:"estimated_budget,omitempty" json:"estimated_budget,omitempty"`
	DetailedRequirements  string        `bson:"detailed_requirements" json:"detailed_requirements"`
	AdditionalInformation string        `bson:"additional_information,omitempty" json:"additional_information,omitempty"`
	BusinessType          string        `bson:"business_type,omitempty" json:"business_type,omitempty"`
	BusinessRequirements  string        `bson:"business_requirements,omitempty" json:"business_requirements,omitempty"`
	Status                string        `bson:"status" json:"status"`
	IsProcessed           bool          `bson:"is_processed" json:"is_processed"`
	CreatedAt             time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt             time.Time     `bson:"updated_at" json:"updated_at"`
}

type CreateRequest struct {
	FullName              string        `json:"full_name" validate:"required,max=200"`
	EmailAddress          string        `json:"email_address" validate:"required,email"`
	PhoneNumber           string        `json:"phone_number" validate:"required,phone"`
	CountryCode           string        `json:"country_code" validate:"omitempty,countrycode"`
	ServicesNeeded        []ServiceItem `json:"services_needed" validate:"required,min=1,dive"`
	Location              string        `json:"location"`
	EstimatedBudget       string        `json:"estimated_budget"`
	DetailedRequirements  string        `json:"detailed_requirements" validate:"required"`
	AdditionalInformation string        `json:"additional_information"`
	BusinessType          string        `json:"business_type"`
	BusinessRequirements  string        `json:"business_requirements"`
}

type AdminStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
}

type ListFilter struct {
	Status      string
	IsProcessed *bool
}
