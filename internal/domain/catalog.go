package domain

// CatalogEntry is one (product_code, size) row of the authoritative product store
type CatalogEntry struct {
	ProductCode string   `json:"productCode"`
	StyleName   string   `json:"styleName"`
	Color       string   `json:"color"`
	Size        string   `json:"size"`
	KeywordsL1  []string `json:"keywordsL1,omitempty"`
	KeywordsL2  []string `json:"keywordsL2,omitempty"`
	SourceRank  int      `json:"sourceRank"` // lower = more authoritative source
	Title       string   `json:"title,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Category    string   `json:"category,omitempty"`
}

// CombinedText joins the fields scorers search for listing tokens
func (e CatalogEntry) CombinedText() string {
	return e.StyleName + " " + e.Title + " " + e.Color + " " + e.ProductCode
}

// LexiconLevel selects one of the two precomputed keyword tiers
type LexiconLevel int

const (
	// LevelBroad (L1) keywords drive recall
	LevelBroad LexiconLevel = 1
	// LevelPrecise (L2) keywords refine precision
	LevelPrecise LexiconLevel = 2
)

// CodeColor is a distinct product code with its catalog color, as returned by prefix recall
type CodeColor struct {
	ProductCode string `json:"productCode"`
	Color       string `json:"color"`
}
