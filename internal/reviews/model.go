package reviews

import (
	"strings"
	"time"
)

// serviceChoices mirrors the intake service catalogue; a review can name
// which service it is about.
var serviceChoices = map[string]struct{}{
	"wi_fi_sim_setup":       {},
	"apartment_finding":     {},
	"grocery_help":          {},
	"translation_services":  {},
	"bill_payments":         {},
	"transportation_help":   {},
	"document_assistance":   {},
	"social_integration":    {},
	"business_support":      {},
	"healthcare_navigation": {},
	"food_dining":           {},
	"customs_request":       {},
}

func IsValidService(value string) bool {
	_, ok := serviceChoices[value]
	return ok
}

// Ordering is the query-string ordering token for review listings.
type Ordering string

const (
	OrderCreatedAtDesc    Ordering = "-created_at"
	OrderCreatedAtAsc     Ordering = "created_at"
	OrderRatingDesc       Ordering = "-rating"
	OrderRatingAsc        Ordering = "rating"
	OrderHelpfulVotesDesc Ordering = "-helpful_votes"
	OrderHelpfulVotesAsc  Ordering = "helpful_votes"
)

var validOrderings = map[Ordering]struct{}{
	OrderCreatedAtDesc:    {},
	OrderCreatedAtAsc:     {},
	OrderRatingDesc:       {},
	OrderRatingAsc:        {},
	OrderHelpfulVotesDesc: {},
	OrderHelpfulVotesAsc:  {},
}

func ParseOrdering(raw string) Ordering {
	o := Ordering(strings.TrimSpace(raw))
	if _, ok := validOrderings[o]; ok {
		return o
	}
	return OrderCreatedAtDesc
}

func (o Ordering) field() string {
	return strings.TrimPrefix(string(o), "-")
}

func (o Ordering) descending() bool {
	return strings.HasPrefix(string(o), "-")
}

// Review is a submitted testimonial. Moderation flags start false and are
// only ever set through the admin surface; submitters cannot touch them.
type Review struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	ReviewerName    string    `bson:"reviewer_name" json:"reviewer_name"`
	ReviewerEmail   string    `bson:"reviewer_email,omitempty" json:"reviewer_email,omitempty"`
	ReviewerCountry string    `bson:"reviewer_country,omitempty" json:"reviewer_country,omitempty"`
	ReviewerAvatar  string    `bson:"reviewer_avatar,omitempty" json:"reviewer_avatar,omitempty"`
	Title           string    `bson:"title,omitempty" json:"title,omitempty"`
	Content         string    `bson:"content" json:"content"`
	Rating          int       `bson:"rating" json:"rating"`
	ServiceUsed     string    `bson:"service_used,omitempty" json:"service_used,omitempty"`
	IsApproved      bool      `bson:"is_approved" json:"is_approved"`
	IsFeatured      bool      `bson:"is_featured" json:"is_featured"`
	IsVerified      bool      `bson:"is_verified" json:"is_verified"`
	HelpfulVotes    int64     `bson:"helpful_votes" json:"helpful_votes"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

type CreateRequest struct {
	ReviewerName    string `json:"reviewer_name" validate:"required,max=100"`
	ReviewerEmail   string `json:"reviewer_email" validate:"omitempty,email"`
	ReviewerCountry string `json:"reviewer_country" validate:"omitempty,max=50"`
	Title           string `json:"title" validate:"omitempty,max=200"`
	Content         string `json:"content" validate:"required,max=1000"`
	Rating          int    `json:"rating" validate:"required,min=1,max=5"`
	ServiceUsed     string `json:"service_used"`
}

// AdminModerationRequest patches the moderation flags; absent fields stay
// as they are.
type AdminModerationRequest struct {
	IsApproved *bool `json:"is_approved"`
	IsFeatured *bool `json:"is_featured"`
	IsVerified *bool `json:"is_verified"`
}

type ListFilter struct {
	Rating      int
	ServiceUsed string
	IsVerified  *bool
	IsFeatured  *bool
	// ApprovedOnly is forced on the public paths; IsApproved is the
	// admin-side filter and is ignored when ApprovedOnly is set.
	ApprovedOnly bool
	IsApproved   *bool
}

// Public is the listing payload for the open endpoints: no reviewer email,
// and days_ago precomputed the way clients render it.
type Public struct {
	ID              string    `json:"id"`
	ReviewerName    string    `json:"reviewer_name"`
	ReviewerCountry string    `json:"reviewer_country,omitempty"`
	ReviewerAvatar  string    `json:"reviewer_avatar,omitempty"`
	Title           string    `json:"title,omitempty"`
	Content         string    `json:"content"`
	Rating          int       `json:"rating"`
	ServiceUsed     string    `json:"service_used,omitempty"`
	IsVerified      bool      `json:"is_verified"`
	HelpfulVotes    int64     `json:"helpful_votes"`
	DaysAgo         int       `json:"days_ago"`
	CreatedAt       time.Time `json:"created_at"`
}
