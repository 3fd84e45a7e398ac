package normalize

import (
	"regexp"
	"strings"
)

// apostrophePattern removes apostrophes so "men's" tokenizes as "mens"
var apostrophePattern = regexp.MustCompile(`['’‘` + "`" + `]`)

// Tokenizer splits listing text into comparable tokens, removing noise words.
type Tokenizer struct {
	stop     map[string]bool
	preserve map[string]bool
}

// NewTokenizer builds a tokenizer from the default stop words plus the
// brand/site specific extras. Preserved words win over stop words.
func NewTokenizer(extraStopWords, extraPreserved []string) *Tokenizer {
	t := &Tokenizer{
		stop:     make(map[string]bool, len(defaultStopWords)+len(extraStopWords)),
		preserve: make(map[string]bool, len(defaultPreservedWords)+len(extraPreserved)),
	}
	for _, w := range defaultStopWords {
		t.stop[w] = true
	}
	for _, w := range extraStopWords {
		for _, tok := range splitWords(w) {
			t.stop[tok] = true
		}
	}
	for _, w := range defaultPreservedWords {
		t.preserve[w] = true
	}
	for _, w := range extraPreserved {
		for _, tok := range splitWords(w) {
			t.preserve[tok] = true
		}
	}
	return t
}

// Tokenize lowercases, strips punctuation, and returns distinct tokens in order
// of first appearance. Tokens shorter than 3 characters, pure numbers and stop
// words are dropped.
func (t *Tokenizer) Tokenize(text string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, word := range splitWords(text) {
		if len(word) < 3 || isNumeric(word) || seen[word] {
			continue
		}
		if t.IsStopWord(word) {
			continue
		}
		seen[word] = true
		tokens = append(tokens, word)
	}
	return tokens
}

// IsStopWord reports whether word is dropped by this tokenizer
func (t *Tokenizer) IsStopWord(word string) bool {
	if t.preserve[word] {
		return false
	}
	return t.stop[word]
}

// splitWords folds text and splits it into raw words without filtering
func splitWords(text string) []string {
	cleaned := apostrophePattern.ReplaceAllString(Fold(text), "")
	var words []string
	for _, w := range wordSplitPattern.Split(cleaned, -1) {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// GarmentType returns the canonical garment type named in raw text, or "".
// It reads the raw text rather than tokenizer output because type words such
// as "jacket" are stop words for matching purposes.
func GarmentType(raw string) string {
	for _, word := range splitWords(raw) {
		if typ, ok := garmentTypes[word]; ok {
			return typ
		}
	}
	return ""
}

// SeriesWords returns the distinct words of text found in the series vocabulary
func SeriesWords(text string, vocabulary map[string]bool) []string {
	if len(vocabulary) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var found []string
	for _, word := range splitWords(text) {
		if vocabulary[word] && !seen[word] {
			seen[word] = true
			found = append(found, word)
		}
	}
	return found
}

// WordSet builds a lookup set from configured words, folding each one
func WordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		for _, tok := range splitWords(w) {
			set[tok] = true
		}
	}
	return set
}

// StripColorWords removes color words and color codes from a token list
func StripColorWords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if IsColorWord(tok) || IsColorCode(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// JoinTokens joins tokens with single spaces
func JoinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}

// Words folds text and splits it into words without any filtering
func Words(text string) []string {
	return splitWords(text)
}
