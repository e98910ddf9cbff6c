package polling

import "roomspot-sniper/internal/model"

// Diff returns the listings of current whose id is not in seen, in the order
// they appear in current. seen is not modified.
func Diff(current []model.Listing, seen *model.SeenSet) []model.Listing {
	fresh := make([]model.Listing, 0)
	for _, listing := range current {
		if !seen.Contains(listing.ID) {
			fresh = append(fresh, listing)
		}
	}
	return fresh
}
