package main

import (
	"context"
	"log"
	"time"

	"github.com/cap-ma/helperinfo/internal/config"
	"github.com/cap-ma/helperinfo/internal/db"
	"github.com/cap-ma/helperinfo/internal/guides"
	"github.com/cap-ma/helperinfo/internal/reviews"
	"github.com/cap-ma/helperinfo/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedGuide struct {
	Category     string
	IsFeatured   bool
	Translations map[string]guides.Translation
}

type seedReview struct {
	ReviewerName    string
	ReviewerCountry string
	Title           string
	Content         string
	Rating          int
	ServiceUsed     string
	IsFeatured      bool
	IsVerified      bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	seedGuides := []seedGuide{
		{
			Category:   guides.CategoryBankingFinance,
			IsFeatured: true,
			Translations: map[string]guides.Translation{
				"en": {
					Title:            "Opening a Bank Account",
					ShortDescription: "Which banks accept foreigners and what documents they ask for.",
					Content:          "<p>Most local banks open accounts for foreigners holding a valid registration. Bring your passport, registration slip and a local phone number.</p>",
					MetaDescription:  "How foreigners open a bank account: banks, documents, timelines.",
					Keywords:         "bank account, foreigners, documents",
				},
				"ru": {
					Title:            "Открытие банковского счёта",
					ShortDescription: "Какие банки работают с иностранцами и какие документы нужны.",
					Content:          "<p>Большинство банков открывают счёт иностранцам с действующей регистрацией. Возьмите паспорт, регистрацию и местный номер телефона.</p>",
				},
			},
		},
		{
			Category: guides.CategoryDocumentation,
			Translations: map[string]guides.Translation{
				"en": {
					Title:            "Temporary Registration Walkthrough",
					ShortDescription: "Step-by-step registration for a newly arrived foreigner.",
					Content:          "<p>Registration must be completed within three working days of arrival. Your landlord or hotel handles the filing; keep the slip with your passport.</p>",
				},
				"uz": {
					Title:            "Vaqtinchalik ro'yxatdan o'tish",
					ShortDescription: "Yangi kelgan chet ellik uchun bosqichma-bosqich ro'yxatdan o'tish.",
					Content:          "<p>Ro'yxatdan o'tish kelgandan keyin uch ish kuni ichida yakunlanishi kerak.</p>",
				},
			},
		},
		{
			Category:   guides.CategoryHousing,
			IsFeatured: true,
			Translations: map[string]guides.Translation{
				"en": {
					Title:            "Renting an Apartment",
					ShortDescription: "Finding long-term rentals and what a fair contract looks like.",
					Content:          "<p>Agents charge half a month's rent. Insist on a written contract naming the registration obligation.</p><img src=\"/media/guides/apartment.png\" alt=\"apartment\">",
				},
			},
		},
		{
			Category: guides.CategoryHealthcare,
			Translations: map[string]guides.Translation{
				"en": {
					Title:            "Finding English-Speaking Doctors",
					ShortDescription: "Clinics used to working with expats and how appointments work.",
					Content:          "<p>Private clinics in the city centre usually have English-speaking staff. Walk-ins are accepted but mornings fill up fast.</p>",
				},
			},
		},
	}

	for _, sg := range seedGuides {
		title := sg.Translations["en"].Title
		slug := utils.Slugify(title)
		now := time.Now().In(cfg.Timezone)
		update := bson.M{
			"$setOnInsert": bson.M{
				"_id":              primitive.NewObjectID().Hex(),
				"slug":             slug,
				"category":         sg.Category,
				"is_published":     true,
				"is_featured":      sg.IsFeatured,
				"publication_date": now,
				"view_count":       int64(0),
				"likes":            int64(0),
				"translations":     sg.Translations,
				"created_at":       now,
				"updated_at":       now,
			},
		}
		if _, err := cols.Guides.UpdateOne(ctx, bson.M{"slug": slug}, update, options.Update().SetUpsert(true)); err != nil {
			log.Fatalf("seed error for guide %s: %v", slug, err)
		}
	}

	seedReviews := []seedReview{
		{
			ReviewerName:    "James",
			ReviewerCountry: "United Kingdom",
			Title:           "Apartment sorted in two days",
			Content:         "I expected weeks of viewings; they shortlisted three flats and handled the contract in my language.",
			Rating:          5,
			ServiceUsed:     "apartment_finding",
			IsFeatured:      true,
			IsVerified:      true,
		},
		{
			ReviewerName:    "Anna",
			ReviewerCountry: "Germany",
			Content:         "SIM and home internet were working the same afternoon I landed.",
			Rating:          5,
			ServiceUsed:     "wi_fi_sim_setup",
			IsVerified:      true,
		},
		{
			ReviewerName: "Timur",
			Content:      "Document help was fine, a bit slow on the follow-up.",
			Rating:       4,
			ServiceUsed:  "document_assistance",
		},
	}

	for _, sr := range seedReviews {
		now := time.Now().In(cfg.Timezone)
		filter := bson.M{"reviewer_name": sr.ReviewerName, "content": sr.Content}
		update := bson.M{
			"$setOnInsert": reviews.Review{
				ID:              primitive.NewObjectID().Hex(),
				ReviewerName:    sr.ReviewerName,
				ReviewerCountry: sr.ReviewerCountry,
				Title:           sr.Title,
				Content:         sr.Content,
				Rating:          sr.Rating,
				ServiceUsed:     sr.ServiceUsed,
				IsApproved:      true,
				IsFeatured:      sr.IsFeatured,
				IsVerified:      sr.IsVerified,
				CreatedAt:       now,
				UpdatedAt:       now,
			},
		}
		if _, err := cols.Reviews.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			log.Fatalf("seed error for review by %s: %v", sr.ReviewerName, err)
		}
	}

	log.Println("seed completed")
}
