package model

import "time"

const (
	NoPriceInfo = "No price info"
	NoAreaInfo  = "No area info"
)

// Listing is one normalized housing offer. Values are never changed after
// the source adapter builds them.
type Listing struct {
	ID              string
	Title           string
	Price           string
	Area            string
	PropertyType    string
	HouseType       string
	Link            string
	ImageURL        string
	PublicationDate string
	ObservedAt      time.Time
}
