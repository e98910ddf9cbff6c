package polling

import (
	"context"
	"errors"

	"roomspot-sniper/internal/model"
)

type ListingSource interface {
	Source() string
	Fetch(ctx context.Context) ([]model.Listing, error)
}

type Notifier interface {
	Notify(ctx context.Context, listing model.Listing) error
}

// MultiNotifier delivers to every sink and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, listing model.Listing) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, listing); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
