package usecase

// ColorKeywordPolicy holds the color-keyword strategy thresholds
type ColorKeywordPolicy struct {
	MinKeywordScore        float64 // accept the keyword pass at or above this score
	FuzzyThreshold         float64 // 0-100 token-set similarity floor for the fuzzy pass
	FuzzyMargin            float64 // required fuzzy lead over the runner-up
	AllowColorCodeTieBreak bool    // accept a narrow fuzzy lead when only the top code carries the listing color code
}

// DefaultColorKeywordPolicy returns the standard thresholds
func DefaultColorKeywordPolicy() ColorKeywordPolicy {
	return ColorKeywordPolicy{
		MinKeywordScore: 3,
		FuzzyThreshold:  85,
		FuzzyMargin:     5,
	}
}

func (p ColorKeywordPolicy) normalized() ColorKeywordPolicy {
	d := DefaultColorKeywordPolicy()
	if p.MinKeywordScore <= 0 {
		p.MinKeywordScore = d.MinKeywordScore
	}
	if p.FuzzyThreshold <= 0 || p.FuzzyThreshold > 100 {
		p.FuzzyThreshold = d.FuzzyThreshold
	}
	if p.FuzzyMargin <= 0 {
		p.FuzzyMargin = d.FuzzyMargin
	}
	return p
}

// LexiconPolicy holds the lexicon-overlap strategy weights and thresholds
type LexiconPolicy struct {
	MinOverlap        int
	MinScore          float64
	MinLead           float64
	WeightL1          float64
	WeightL2          float64
	WeightColor       float64
	WeightName        float64
	RequireExactColor bool
}

// DefaultLexiconPolicy returns the standard weights and thresholds
func DefaultLexiconPolicy() LexiconPolicy {
	return LexiconPolicy{
		MinOverlap:  1,
		MinScore:    0.68,
		MinLead:     0.04,
		WeightL1:    0.55,
		WeightL2:    0.20,
		WeightColor: 0.10,
		WeightName:  0.15,
	}
}

func (p LexiconPolicy) normalized() LexiconPolicy {
	d := DefaultLexiconPolicy()
	if p.MinOverlap <= 0 {
		p.MinOverlap = d.MinOverlap
	}
	if p.MinScore <= 0 || p.MinScore > 1 {
		p.MinScore = d.MinScore
	}
	if p.MinLead <= 0 || p.MinLead >= 1 {
		p.MinLead = d.MinLead
	}
	if p.WeightL1 <= 0 && p.WeightL2 <= 0 && p.WeightColor <= 0 && p.WeightName <= 0 {
		p.WeightL1, p.WeightL2, p.WeightColor, p.WeightName = d.WeightL1, d.WeightL2, d.WeightColor, d.WeightName
	}
	return p
}

// SimilarityPolicy holds the generic similarity strategy weights and floors
type SimilarityPolicy struct {
	MinScore          float64
	MinLead           float64
	WeightName        float64
	WeightColor       float64
	WeightType        float64
	SeriesBonus       float64
	MinNameSimilarity float64 // 0 disables the floor
	RequireExactColor bool
	RequireExactType  bool
}

// DefaultSimilarityPolicy returns the standard weights and thresholds
func DefaultSimilarityPolicy() SimilarityPolicy {
	return SimilarityPolicy{
		MinScore:    0.72,
		MinLead:     0.04,
		WeightName:  0.72,
		WeightColor: 0.20,
		WeightType:  0.08,
		SeriesBonus: 0.03,
	}
}

func (p SimilarityPolicy) normalized() SimilarityPolicy {
	d := DefaultSimilarityPolicy()
	if p.MinScore <= 0 || p.MinScore > 1 {
		p.MinScore = d.MinScore
	}
	if p.MinLead <= 0 || p.MinLead >= 1 {
		p.MinLead = d.MinLead
	}
	if p.WeightName <= 0 && p.WeightColor <= 0 && p.WeightType <= 0 {
		p.WeightName, p.WeightColor, p.WeightType = d.WeightName, d.WeightColor, d.WeightType
	}
	if p.SeriesBonus < 0 {
		p.SeriesBonus = 0
	}
	if p.MinNameSimilarity < 0 || p.MinNameSimilarity > 1 {
		p.MinNameSimilarity = 0
	}
	return p
}
