package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/lexicon"
	"github.com/stockbind/backend/internal/normalize"
	"github.com/stockbind/backend/internal/retrieval"
	"github.com/stockbind/backend/internal/similarity"
)

// Sub-score names recorded on MatchCandidate.SubScores
const (
	scoreCode    = "code"
	scoreKeyword = "keyword"
	scoreFuzzy   = "fuzzy"
	scoreL1      = "l1"
	scoreL2      = "l2"
	scoreColor   = "color"
	scoreName    = "name"
	scoreType    = "type"
	scoreSeries  = "series"
)

// Strategy is one interchangeable scoring engine of the resolution cascade.
// Resolve returns the decision together with the ranked candidates it was
// made from (one entry per product code, best first).
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, listing *domain.ScrapedListing) (domain.Outcome, []domain.MatchCandidate)
}

// MatchDeps are the collaborators shared by every strategy
type MatchDeps struct {
	Retriever    *retrieval.Retriever
	Tokenizer    *normalize.Tokenizer
	Similarity   similarity.StringSimilarity
	Lexicon      *lexicon.Cache
	SeriesWords  map[string]bool
	DefaultBrand string
	Logger       zerolog.Logger
}

func (d MatchDeps) withDefaults() MatchDeps {
	if d.Tokenizer == nil {
		d.Tokenizer = normalize.NewTokenizer(nil, nil)
	}
	if d.Similarity == nil {
		d.Similarity = similarity.TokenSet{}
	}
	return d
}

// logDecision records the recall path and the top/lead of a ranked list
func (d MatchDeps) logDecision(stage, via string, recalled int, ranked []domain.MatchCandidate, outcome domain.Outcome) {
	top, runnerUp := topTwo(ranked)
	event := d.Logger.Debug().
		Str("stage", stage).
		Str("via", via).
		Int("recalled", recalled).
		Int("ranked", len(ranked)).
		Float64("top", top).
		Float64("lead", top-runnerUp).
		Bool("matched", outcome.IsMatched())
	if len(ranked) > 0 {
		event = event.Str("top_code", ranked[0].ProductCode)
	}
	event.Msg("Stage decision")
}

func (d MatchDeps) brandFor(listing *domain.ScrapedListing) string {
	if listing.Brand != "" {
		return listing.Brand
	}
	return d.DefaultBrand
}

// SaturatingOverlap maps a keyword overlap count onto a diminishing-returns
// curve: 0 -> 0, 1 -> 0.75, 2 -> 0.90, 3 or more -> 1.0.
func SaturatingOverlap(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 0.75
	case n == 2:
		return 0.90
	default:
		return 1.0
	}
}

// bestPerCode keeps the highest-scoring row per product code (ties go to the
// more authoritative source) and sorts the result best first.
func bestPerCode(candidates []domain.MatchCandidate) []domain.MatchCandidate {
	best := make(map[string]int, len(candidates))
	var out []domain.MatchCandidate
	for _, c := range candidates {
		idx, ok := best[c.ProductCode]
		if !ok {
			best[c.ProductCode] = len(out)
			out = append(out, c)
			continue
		}
		cur := out[idx]
		if c.Score > cur.Score || (c.Score == cur.Score && c.SourceRank < cur.SourceRank) {
			out[idx] = c
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductCode < out[j].ProductCode
	})
	return out
}

// topTwo returns the best score and the runner-up score (0 when alone)
func topTwo(ranked []domain.MatchCandidate) (top, runnerUp float64) {
	if len(ranked) == 0 {
		return 0, 0
	}
	top = ranked[0].Score
	if len(ranked) > 1 {
		runnerUp = ranked[1].Score
	}
	return top, runnerUp
}

// decideByLead accepts the top candidate when it clears minScore and leads the
// runner-up by at least minLead. An exact tie never resolves.
func decideByLead(ranked []domain.MatchCandidate, minScore, minLead float64) domain.Outcome {
	if len(ranked) == 0 {
		return domain.NoMatch("no candidates")
	}
	top, runnerUp := topTwo(ranked)
	lead := top - runnerUp
	detail := fmt.Sprintf("top=%s score=%.3f lead=%.3f candidates=%d", ranked[0].ProductCode, top, lead, len(ranked))
	if top < minScore {
		return domain.NoMatch("below min score: " + detail)
	}
	if lead <= 0 || lead < minLead {
		return domain.NoMatch("insufficient lead: " + detail)
	}
	return domain.MatchedCode(ranked[0].ProductCode, detail)
}

func newCandidate(e domain.CatalogEntry) domain.MatchCandidate {
	return domain.MatchCandidate{
		ProductCode: e.ProductCode,
		StyleName:   e.StyleName,
		Color:       e.Color,
		SourceRank:  e.SourceRank,
		SubScores:   make(map[string]float64, 4),
	}
}
