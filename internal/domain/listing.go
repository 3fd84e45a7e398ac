package domain

import "strings"

// UnresolvedCode is the sentinel returned when no stage produced a code
const UnresolvedCode = "No Data"

// ScrapedListing represents one listing scraped from a retailer page
type ScrapedListing struct {
	Site        string `json:"site"`
	URL         string `json:"url"`
	RawTitle    string `json:"raw_title"`
	RawColor    string `json:"raw_color"`
	PartialCode string `json:"partial_code,omitempty"` // style code missing its color suffix
	SKUGuess    string `json:"sku_guess,omitempty"`    // literal code asserted by the source page
	Brand       string `json:"brand,omitempty"`
}

// Validate reports ErrInvalidListing when there is nothing to resolve from
func (l *ScrapedListing) Validate() error {
	if l == nil {
		return ErrInvalidListing
	}
	if strings.TrimSpace(l.URL) == "" && strings.TrimSpace(l.RawTitle) == "" &&
		strings.TrimSpace(l.PartialCode) == "" && strings.TrimSpace(l.SKUGuess) == "" {
		return ErrInvalidListing
	}
	return nil
}

// MatchCandidate is one catalog entry considered during a single resolution call
type MatchCandidate struct {
	ProductCode string             `json:"productCode"`
	StyleName   string             `json:"styleName"`
	Color       string             `json:"color"`
	SubScores   map[string]float64 `json:"subScores,omitempty"`
	Score       float64            `json:"score"`
	SourceRank  int                `json:"-"`
}
