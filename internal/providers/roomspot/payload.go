package roomspot

const (
	defaultEndpoint = "https://studentenenschede-aanbodapi.zig365.nl/api/v1/actueel-aanbod?limit=60&locale=en_GB&page=0&sort=%2BreactionData.aangepasteTotaleHuurprijs"
	imageOrigin     = "https://www.roomspot.nl"
	linkBase        = "https://www.roomspot.nl/en/housing-offer/to-rent/translate-to-engels-details/"
	userAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
)

// addressFilter matches every street/house number combination. The API
// expects it twice inside the nested $and.
func addressFilter() map[string]any {
	return map[string]any{
		"$or": []any{
			map[string]any{"street": map[string]any{"$like": ""}},
			map[string]any{"houseNumber": map[string]any{"$like": ""}},
			map[string]any{"houseNumberAddition": map[string]any{"$like": ""}},
		},
	}
}

// searchPayload selects regular rental dwellings in Enschede, excluding
// extra offers and house swaps.
func searchPayload() map[string]any {
	return map[string]any{
		"hidden-filters": map[string]any{
			"$and": []any{
				map[string]any{"dwellingType.categorie": map[string]any{"$eq": "woning"}},
				map[string]any{"rentBuy": map[string]any{"$eq": "Huur"}},
				map[string]any{"isExtraAanbod": map[string]any{"$eq": ""}},
				map[string]any{"isWoningruil": map[string]any{"$eq": ""}},
				map[string]any{"$and": []any{addressFilter(), addressFilter()}},
			},
		},
	}
}
