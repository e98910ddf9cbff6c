package roomspot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"roomspot-sniper/internal/model"
	"roomspot-sniper/internal/providers/common"
)

var (
	errEmptyTitle = errors.New("empty title")
	errNotNumeric = errors.New("not a number")
)

type rawListing struct {
	ID                  any               `json:"id"`
	Street              any               `json:"street"`
	HouseNumber         any               `json:"houseNumber"`
	HouseNumberAddition any               `json:"houseNumberAddition"`
	City                any               `json:"gemeenteGeoLocatieNaam"`
	PostalCode          any               `json:"postalcode"`
	TotalRent           any               `json:"totalRent"`
	NetRent             any               `json:"netRent"`
	AreaDwelling        any               `json:"areaDwelling"`
	DwellingType        localizedField    `json:"dwellingType"`
	ObjectType          any               `json:"objectType"`
	HouseKind           localizedField    `json:"woningsoort"`
	AllocationCategory  *allocationModel  `json:"toewijzingModelCategorie"`
	Pictures            []json.RawMessage `json:"pictures"`
	PublicationDate     any               `json:"publicationDate"`
}

type allocationModel struct {
	Code any `json:"code"`
}

type fieldShape int

const (
	shapeAbsent fieldShape = iota
	shapeObject
	shapeText
)

// localizedField holds an API value that arrives either as an object carrying
// a localized name or as a bare string. The shape is fixed at decode time.
type localizedField struct {
	shape fieldShape
	attrs map[string]any
	text  string
}

func (f *localizedField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*f = localizedField{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '{':
		decoder := json.NewDecoder(bytes.NewReader(trimmed))
		decoder.UseNumber()
		var attrs map[string]any
		if err := decoder.Decode(&attrs); err != nil {
			return err
		}
		f.shape = shapeObject
		f.attrs = attrs
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		f.shape = shapeText
		f.text = text
	}
	return nil
}

// Name returns the given attribute when the field is an object.
func (f localizedField) Name(key string) (string, bool) {
	if f.shape != shapeObject {
		return "", false
	}
	return common.ToString(f.attrs[key]), true
}

// Text returns the value when the field is a bare string.
func (f localizedField) Text() (string, bool) {
	if f.shape != shapeText {
		return "", false
	}
	return f.text, true
}

func decodeRawListing(data json.RawMessage) (rawListing, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var item rawListing
	if err := decoder.Decode(&item); err != nil {
		return rawListing{}, err
	}
	return item, nil
}

func normalize(item rawListing, observedAt time.Time) (model.Listing, error) {
	id := common.ToString(item.ID)
	title := buildTitle(item)
	if strings.TrimSpace(title) == "" {
		return model.Listing{}, fmt.Errorf("listing %q: %w", id, errEmptyTitle)
	}

	price, err := buildPrice(item)
	if err != nil {
		return model.Listing{}, fmt.Errorf("listing %q: %w", id, err)
	}
	area, err := buildArea(item)
	if err != nil {
		return model.Listing{}, fmt.Errorf("listing %q: %w", id, err)
	}

	return model.Listing{
		ID:              id,
		Title:           title,
		Price:           price,
		Area:            area,
		PropertyType:    buildPropertyType(item),
		HouseType:       buildHouseType(item),
		Link:            buildLink(id, item),
		ImageURL:        buildImageURL(item.Pictures),
		PublicationDate: common.ToString(item.PublicationDate),
		ObservedAt:      observedAt,
	}, nil
}

func presentStrings(values ...any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if common.IsPresent(v) {
			out = append(out, common.ToString(v))
		}
	}
	return out
}

func buildTitle(item rawListing) string {
	title := strings.Join(presentStrings(item.Street, item.HouseNumber, item.HouseNumberAddition), " ")
	if common.IsPresent(item.PostalCode) || common.IsPresent(item.City) {
		title += strings.TrimSpace(", " + common.ToString(item.PostalCode) + " " + common.ToString(item.City))
	}
	return title
}

func buildPrice(item rawListing) (string, error) {
	for _, field := range []struct {
		name  string
		value any
	}{
		{"totalRent", item.TotalRent},
		{"netRent", item.NetRent},
	} {
		if !common.IsPresent(field.value) {
			continue
		}
		amount, ok := common.ToFloat64(field.value)
		if !ok {
			return "", fmt.Errorf("%s %v: %w", field.name, field.value, errNotNumeric)
		}
		return common.FormatEuro(amount), nil
	}
	return model.NoPriceInfo, nil
}

// buildArea keeps the literal text of the area. Only numbers and strings are
// accepted.
func buildArea(item rawListing) (string, error) {
	if !common.IsPresent(item.AreaDwelling) {
		return model.NoAreaInfo, nil
	}
	switch item.AreaDwelling.(type) {
	case string, json.Number:
		return common.ToString(item.AreaDwelling) + " m²", nil
	default:
		return "", fmt.Errorf("areaDwelling %v: %w", item.AreaDwelling, errNotNumeric)
	}
}

func buildPropertyType(item rawListing) string {
	if name, ok := item.DwellingType.Name("localizedName"); ok {
		return name
	}
	if common.IsPresent(item.ObjectType) {
		return common.ToString(item.ObjectType)
	}
	if text, ok := item.DwellingType.Text(); ok {
		return text
	}
	return ""
}

func buildHouseType(item rawListing) string {
	if name, ok := item.HouseKind.Name("localizedNaam"); ok {
		return name
	}
	if item.AllocationCategory != nil {
		return common.ToString(item.AllocationCategory.Code)
	}
	return ""
}

func buildImageURL(pictures []json.RawMessage) string {
	if len(pictures) == 0 {
		return ""
	}

	var first map[string]any
	if err := json.Unmarshal(pictures[0], &first); err != nil {
		return ""
	}

	url := ""
	if v, ok := first["url"]; ok {
		url = common.ToString(v)
	} else if v, ok := first["uri"]; ok {
		url = common.ToString(v)
	}
	if url == "" {
		return ""
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = imageOrigin + url
	}
	return url
}

func buildLink(id string, item rawListing) string {
	components := []string{id}

	if common.IsPresent(item.Street) {
		components = append(components, common.StripSpaces(strings.ToLower(common.ToString(item.Street))))
	}
	if common.IsPresent(item.HouseNumber) {
		components = append(components, common.ToString(item.HouseNumber))
	}
	if common.IsPresent(item.HouseNumberAddition) {
		if addition := common.StripSpaces(common.ToString(item.HouseNumberAddition)); addition != "" {
			components = append(components, addition)
		}
	}
	if common.IsPresent(item.City) {
		components = append(components, common.StripSpaces(strings.ToLower(common.ToString(item.City))))
	}

	return linkBase + strings.Join(components, "-")
}
