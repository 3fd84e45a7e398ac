package usecase

import (
	"context"
	"fmt"

	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/normalize"
)

// StageGenericSimilarity names the generic similarity stage
const StageGenericSimilarity = "generic_similarity"

// SimilarityStrategy compares cleaned listing text with every recalled style
// using the configured string similarity, plus color and garment-type signals.
type SimilarityStrategy struct {
	deps   MatchDeps
	policy SimilarityPolicy
}

// NewSimilarityStrategy creates the generic similarity strategy
func NewSimilarityStrategy(deps MatchDeps, policy SimilarityPolicy) *SimilarityStrategy {
	return &SimilarityStrategy{deps: deps.withDefaults(), policy: policy.normalized()}
}

// Name implements Strategy
func (s *SimilarityStrategy) Name() string { return StageGenericSimilarity }

// Resolve implements Strategy
func (s *SimilarityStrategy) Resolve(ctx context.Context, listing *domain.ScrapedListing) (domain.Outcome, []domain.MatchCandidate) {
	tokens := normalize.StripColorWords(s.deps.Tokenizer.Tokenize(listing.RawTitle))
	if len(tokens) == 0 {
		return domain.NoMatch("listing has no significant tokens"), nil
	}
	cleaned := normalize.JoinTokens(tokens)
	series := normalize.SeriesWords(listing.RawTitle, s.deps.SeriesWords)
	listingType := normalize.GarmentType(listing.RawTitle)

	recall, err := s.deps.Retriever.BySeriesAndTokens(ctx, series, tokens)
	if err != nil {
		return domain.StageFailed(fmt.Errorf("similarity recall: %w", err)), nil
	}
	if len(recall.Entries) == 0 {
		return domain.NoMatch("catalog returned no entries"), nil
	}

	candidates := make([]domain.MatchCandidate, 0, len(recall.Entries))
	for _, e := range recall.Entries {
		entryText := normalize.JoinTokens(normalize.StripColorWords(s.deps.Tokenizer.Tokenize(e.StyleName + " " + e.Title)))
		name := s.deps.Similarity.Ratio(cleaned, entryText) / 100
		if s.policy.MinNameSimilarity > 0 && name < s.policy.MinNameSimilarity {
			continue
		}
		color := normalize.ColorSimilarity(listing.RawColor, e.Color)
		if s.policy.RequireExactColor && color < 1 {
			continue
		}
		typ := 0.0
		if listingType != "" && listingType == normalize.GarmentType(e.StyleName+" "+e.Title+" "+e.Category) {
			typ = 1
		}
		if s.policy.RequireExactType && typ < 1 {
			continue
		}
		bonus := 0.0
		if sharesSeries(series, e, s.deps.SeriesWords) {
			bonus = s.policy.SeriesBonus
		}

		c := newCandidate(e)
		c.SubScores[scoreName] = name
		c.SubScores[scoreColor] = color
		c.SubScores[scoreType] = typ
		c.SubScores[scoreSeries] = bonus
		c.Score = s.policy.WeightName*name + s.policy.WeightColor*color + s.policy.WeightType*typ + bonus
		candidates = append(candidates, c)
	}

	ranked := bestPerCode(candidates)
	outcome := decideByLead(ranked, s.policy.MinScore, s.policy.MinLead)
	s.deps.logDecision(StageGenericSimilarity, recall.Via, len(recall.Entries), ranked, outcome)
	return outcome, ranked
}

func sharesSeries(series []string, e domain.CatalogEntry, vocabulary map[string]bool) bool {
	if len(series) == 0 {
		return false
	}
	for _, w := range normalize.SeriesWords(e.StyleName+" "+e.Title, vocabulary) {
		for _, s := range series {
			if w == s {
				return true
			}
		}
	}
	return false
}
