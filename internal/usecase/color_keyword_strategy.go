package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/normalize"
)

// StageColorKeyword names the color-keyword stage
const StageColorKeyword = "color_keyword"

// ColorKeywordStrategy recalls candidates by normalized color and scores them
// with a keyword tally, falling back to a fuzzy name comparison when the tally
// is inconclusive.
type ColorKeywordStrategy struct {
	deps   MatchDeps
	policy ColorKeywordPolicy
}

// NewColorKeywordStrategy creates the color-keyword strategy
func NewColorKeywordStrategy(deps MatchDeps, policy ColorKeywordPolicy) *ColorKeywordStrategy {
	return &ColorKeywordStrategy{deps: deps.withDefaults(), policy: policy.normalized()}
}

// Name implements Strategy
func (s *ColorKeywordStrategy) Name() string { return StageColorKeyword }

// Resolve implements Strategy
func (s *ColorKeywordStrategy) Resolve(ctx context.Context, listing *domain.ScrapedListing) (domain.Outcome, []domain.MatchCandidate) {
	color := normalize.NormalizeColor(listing.RawColor)
	if color == "" {
		return domain.NoMatch("listing has no usable color"), nil
	}

	recall, err := s.deps.Retriever.ByColor(ctx, color, listing.RawColor)
	if err != nil {
		return domain.StageFailed(fmt.Errorf("color recall: %w", err)), nil
	}
	if len(recall.Entries) == 0 {
		return domain.NoMatch("no catalog entries for color " + color), nil
	}

	// Season and size tokens in titles ("AW23", "UK10") share the code shape,
	// so only the color field is trusted for a color code.
	code := normalize.ExtractColorCode(listing.RawColor)
	tokens := s.listingTokens(listing, color)

	ranked := s.keywordRank(recall.Entries, code, color, tokens)
	top, runnerUp := topTwo(ranked)
	if top >= s.policy.MinKeywordScore && top > runnerUp {
		outcome := domain.MatchedCode(ranked[0].ProductCode,
			fmt.Sprintf("keyword score %.0f over %.0f via %s (%d candidates)", top, runnerUp, recall.Via, len(ranked)))
		s.deps.logDecision(StageColorKeyword, recall.Via, len(recall.Entries), ranked, outcome)
		return outcome, ranked
	}

	fuzzy := s.fuzzyRank(recall.Entries, listing, normalize.Fold(color))
	outcome := s.decideFuzzy(fuzzy, normalize.ColorCodeLetters(code))
	s.deps.logDecision(StageColorKeyword, recall.Via+"+fuzzy", len(recall.Entries), fuzzy, outcome)
	return outcome, fuzzy
}

// listingTokens are the listing words other than color words for the
// listing color and codes
func (s *ColorKeywordStrategy) listingTokens(listing *domain.ScrapedListing, color string) []string {
	raw := s.deps.Tokenizer.Tokenize(listing.RawTitle + " " + listing.RawColor)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if normalize.IsColorCode(tok) || normalize.NormalizeColor(tok) == color {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func (s *ColorKeywordStrategy) keywordRank(entries []domain.CatalogEntry, code, color string, tokens []string) []domain.MatchCandidate {
	letters := normalize.ColorCodeLetters(code)
	colorWord := normalize.Fold(color)
	candidates := make([]domain.MatchCandidate, 0, len(entries))
	for _, e := range entries {
		words := make(map[string]bool)
		for _, w := range normalize.Words(e.CombinedText()) {
			words[w] = true
		}

		codeHit := 0.0
		if hasColorSlot(e.ProductCode, letters) || (code != "" && words[strings.ToLower(code)]) {
			codeHit = 5
		}
		colorHit := 0.0
		if normalize.NormalizeColor(e.Color) == color || strings.Contains(normalize.Fold(e.Color), colorWord) {
			colorHit = 2
		}
		tokenHits := 0.0
		for _, tok := range tokens {
			if words[tok] {
				tokenHits++
			}
		}
		c := newCandidate(e)
		c.SubScores[scoreCode] = codeHit
		c.SubScores[scoreColor] = colorHit
		c.SubScores[scoreKeyword] = tokenHits
		c.Score = codeHit + colorHit + tokenHits
		candidates = append(candidates, c)
	}
	return bestPerCode(candidates)
}

// hasColorSlot reports whether the product code's color slot carries letters
func hasColorSlot(productCode, letters string) bool {
	return letters != "" && normalize.ProductColorLetters(productCode) == letters
}

func (s *ColorKeywordStrategy) fuzzyRank(entries []domain.CatalogEntry, listing *domain.ScrapedListing, colorWord string) []domain.MatchCandidate {
	listingText := normalize.JoinTokens(normalize.StripColorWords(s.deps.Tokenizer.Tokenize(listing.RawTitle))) + " " + colorWord
	candidates := make([]domain.MatchCandidate, 0, len(entries))
	for _, e := range entries {
		entryText := normalize.JoinTokens(normalize.StripColorWords(s.deps.Tokenizer.Tokenize(e.StyleName))) +
			" " + normalize.Fold(normalize.NormalizeColor(e.Color))
		c := newCandidate(e)
		c.Score = s.deps.Similarity.Ratio(listingText, entryText)
		c.SubScores[scoreFuzzy] = c.Score
		candidates = append(candidates, c)
	}
	return bestPerCode(candidates)
}

func (s *ColorKeywordStrategy) decideFuzzy(ranked []domain.MatchCandidate, letters string) domain.Outcome {
	if len(ranked) == 0 {
		return domain.NoMatch("no candidates")
	}
	top, runnerUp := topTwo(ranked)
	lead := top - runnerUp
	detail := fmt.Sprintf("fuzzy top=%s ratio=%.1f lead=%.1f candidates=%d", ranked[0].ProductCode, top, lead, len(ranked))
	if top < s.policy.FuzzyThreshold {
		return domain.NoMatch("fuzzy below threshold: " + detail)
	}
	if len(ranked) == 1 {
		return domain.MatchedCode(ranked[0].ProductCode, detail)
	}
	if lead > 0 && lead >= s.policy.FuzzyMargin {
		return domain.MatchedCode(ranked[0].ProductCode, detail)
	}
	if s.policy.AllowColorCodeTieBreak && lead > 0 &&
		hasColorSlot(ranked[0].ProductCode, letters) && !hasColorSlot(ranked[1].ProductCode, letters) {
		return domain.MatchedCode(ranked[0].ProductCode, "color code tie-break: "+detail)
	}
	return domain.NoMatch("fuzzy lead too small: " + detail)
}
