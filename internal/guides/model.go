package guides

import "time"

const (
	CategoryBankingFinance = "banking_finance"
	CategoryTransportation = "transportation"
	CategoryDocumentation  = "documentation"
	CategoryHousing        = "housing"
	CategoryHealthcare     = "healthcare"
	CategoryBusiness       = "business"
	CategoryCultural       = "cultural"
	CategoryEmergency      = "emergency"
)

var validCategories = map[string]struct{}{
	CategoryBankingFinance: {},
	CategoryTransportation: {},
	CategoryDocumentation:  {},
	CategoryHousing:        {},
	CategoryHealthcare:     {},
	CategoryBusiness:       {},
	CategoryCultural:       {},
	CategoryEmergency:      {},
}

func IsValidCategory(value string) bool {
	_, ok := validCategories[value]
	return ok
}

// SupportedLangs are the languages guides can be translated into. The list
// is closed because search and title ordering build per-language queries.
var SupportedLangs = []string{"en", "ru", "uz"}

func IsSupportedLang(lang string) bool {
	for _, l := range SupportedLangs {
		if l == lang {
			return true
		}
	}
	return false
}

// Translation is the per-language field set of a guide.
type Translation struct {
	Title            string `bson:"title" json:"title" validate:"required,max=200"`
	ShortDescription string `bson:"short_description" json:"short_description" validate:"required,max=300"`
	Content          string `bson:"content" json:"content" validate:"required"`
	MetaDescription  string `bson:"meta_description,omitempty" json:"meta_description,omitempty" validate:"omitempty,max=160"`
	Keywords         string `bson:"keywords,omitempty" json:"keywords,omitempty" validate:"omitempty,max=200"`
}

// Guide holds the language-invariant attributes plus the translation map.
// The slug is assigned once at creation and never changes afterwards.
type Guide struct {
	ID              string                 `bson:"_id,omitempty" json:"id"`
	Slug            string                 `bson:"slug" json:"slug"`
	Category        string                 `bson:"category" json:"category"`
	FeaturedImage   string                 `bson:"featured_image,omitempty" json:"featured_image,omitempty"`
	IsPublished     bool                   `bson:"is_published" json:"is_published"`
	IsFeatured      bool                   `bson:"is_featured" json:"is_featured"`
	PublicationDate time.Time              `bson:"publication_date" json:"publication_date"`
	ViewCount       int64                  `bson:"view_count" json:"view_count"`
	Likes           int64                  `bson:"likes" json:"likes"`
	Translations    map[string]Translation `bson:"translations" json:"translations"`
	CreatedAt       time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time              `bson:"updated_at" json:"updated_at"`
}

type CreateRequest struct {
	Slug            string                 `json:"slug"`
	Category        string                 `json:"category" validate:"required"`
	FeaturedImage   string                 `json:"featured_image"`
	IsPublished     *bool                  `json:"is_published"`
	IsFeatured      *bool                  `json:"is_featured"`
	PublicationDate *time.Time             `json:"publication_date"`
	Translations    map[string]Translation `json:"translations" validate:"required,min=1,dive"`
}

type UpdateRequest struct {
	Category        string                 `json:"category"`
	FeaturedImage   *string                `json:"featured_image"`
	IsPublished     *bool                  `json:"is_published"`
	IsFeatured      *bool                  `json:"is_featured"`
	PublicationDate *time.Time             `json:"publication_date"`
	Translations    map[string]Translation `json:"translations" validate:"omitempty,dive"`
}

type ListFilter struct {
	Category      string
	IsFeatured    *bool
	Search        string
	PublishedOnly bool
}

// Summary is the listing payload; Lang is the language the textual fields
// were resolved into (may differ from the requested one after fallback).
type Summary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Category         string    `json:"category"`
	ShortDescription string    `json:"short_description"`
	FeaturedImage    string    `json:"featured_image,omitempty"`
	IsFeatured       bool      `json:"is_featured"`
	PublicationDate  time.Time `json:"publication_date"`
	ViewCount        int64     `json:"view_count"`
	Likes            int64     `json:"likes"`
	Lang             string    `json:"lang"`
	ReadingTime      int       `json:"reading_time"`
}

type Detail struct {
	Summary
	Content         string    `json:"content"`
	MetaDescription string    `json:"meta_description,omitempty"`
	Keywords        string    `json:"keywords,omitempty"`
	Related         []Summary `json:"related_guides"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
