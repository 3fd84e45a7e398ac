package usecase

import (
	"context"
	"fmt"

	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/normalize"
	"github.com/stockbind/backend/internal/retrieval"
)

// StageLexiconOverlap names the lexicon-overlap stage
const StageLexiconOverlap = "lexicon_overlap"

// LexiconStrategy scores candidates by overlap between listing tokens and the
// precomputed L1/L2 keyword sets, filtered through the brand lexicon.
type LexiconStrategy struct {
	deps   MatchDeps
	policy LexiconPolicy
}

// NewLexiconStrategy creates the lexicon-overlap strategy
func NewLexiconStrategy(deps MatchDeps, policy LexiconPolicy) *LexiconStrategy {
	return &LexiconStrategy{deps: deps.withDefaults(), policy: policy.normalized()}
}

// Name implements Strategy
func (s *LexiconStrategy) Name() string { return StageLexiconOverlap }

// Resolve implements Strategy
func (s *LexiconStrategy) Resolve(ctx context.Context, listing *domain.ScrapedListing) (domain.Outcome, []domain.MatchCandidate) {
	raw := normalize.StripColorWords(s.deps.Tokenizer.Tokenize(listing.RawTitle))
	if len(raw) == 0 {
		return domain.NoMatch("listing has no significant tokens"), nil
	}

	brand := s.deps.brandFor(listing)
	l1 := raw
	l2 := raw
	if s.deps.Lexicon != nil {
		l1 = s.deps.Lexicon.Filter(ctx, brand, domain.LevelBroad, raw)
		l2 = s.deps.Lexicon.Filter(ctx, brand, domain.LevelPrecise, raw)
	}

	recall, err := s.deps.Retriever.ByKeywords(ctx, domain.LevelBroad, l1, s.policy.MinOverlap)
	if err != nil {
		return domain.StageFailed(fmt.Errorf("keyword recall: %w", err)), nil
	}
	if len(recall.Entries) == 0 {
		return domain.NoMatch("no keyword overlap with catalog"), nil
	}

	listingColor := normalize.NormalizeColor(listing.RawColor)
	listingName := normalize.JoinTokens(raw)

	candidates := make([]domain.MatchCandidate, 0, len(recall.Entries))
	for _, e := range recall.Entries {
		colorHit := 0.0
		if listingColor != "" && listingColor == normalize.NormalizeColor(e.Color) {
			colorHit = 1
		}
		if s.policy.RequireExactColor && colorHit == 0 {
			continue
		}
		s1 := SaturatingOverlap(retrieval.OverlapCount(l1, e.KeywordsL1))
		s2 := SaturatingOverlap(retrieval.OverlapCount(l2, e.KeywordsL2))
		styleName := normalize.JoinTokens(normalize.StripColorWords(s.deps.Tokenizer.Tokenize(e.StyleName)))
		name := s.deps.Similarity.Ratio(listingName, styleName) / 100

		c := newCandidate(e)
		c.SubScores[scoreL1] = s1
		c.SubScores[scoreL2] = s2
		c.SubScores[scoreColor] = colorHit
		c.SubScores[scoreName] = name
		c.Score = s.policy.WeightL1*s1 + s.policy.WeightL2*s2 + s.policy.WeightColor*colorHit + s.policy.WeightName*name
		candidates = append(candidates, c)
	}

	ranked := bestPerCode(candidates)
	outcome := decideByLead(ranked, s.policy.MinScore, s.policy.MinLead)
	s.deps.logDecision(StageLexiconOverlap, recall.Via, len(recall.Entries), ranked, outcome)
	return outcome, ranked
}
