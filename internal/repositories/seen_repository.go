package repositories

import (
	"context"

	"roomspot-sniper/internal/model"
)

// SeenRepository persists the set of listing ids that were already announced.
// Load on a store that was never written returns an empty set. Save replaces
// the stored set as a whole.
type SeenRepository interface {
	Load(ctx context.Context) (*model.SeenSet, error)
	Save(ctx context.Context, seen *model.SeenSet) error
}
