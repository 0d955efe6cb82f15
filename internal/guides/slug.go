package guides

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// maxSlugAttempts bounds the probe loop; hitting it means something is
// hammering the same title far beyond anything realistic.
const maxSlugAttempts = 1000

// insertWithUniqueSlug derives a slug from base and inserts the guide,
// appending -1, -2, ... while the candidate is taken. The existence probe
// keeps the common case to a single insert; the unique index is what makes
// the result correct when two creations race on the same title, in which
// case the loser sees a duplicate-key error and advances to the next
// suffix instead of failing.
func insertWithUniqueSlug(ctx context.Context, repo Repository, g Guide, base string) (Guide, error) {
	for suffix := 0; suffix < maxSlugAttempts; suffix++ {
		candidate := base
		if suffix > 0 {
			candidate = fmt.Sprintf("%s-%d", base, suffix)
		}

		exists, err := repo.SlugExists(ctx, candidate)
		if err != nil {
			return Guide{}, err
		}
		if exists {
			continue
		}

		g.Slug = candidate
		err = repo.Insert(ctx, g)
		if err == nil {
			return g, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		return Guide{}, err
	}
	return Guide{}, ErrSlugExists
}
