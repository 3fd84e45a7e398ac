package normalize

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// colorCodePattern matches a whole supplier color code token such as "OL71"
	colorCodePattern = regexp.MustCompile(`^[A-Za-z]{2}[0-9]{2}$`)

	// trailingColorCodePattern matches a color code appended to the end of a color name
	trailingColorCodePattern = regexp.MustCompile(`(?:^|[\s\-_,(]+)[A-Za-z]{2}[0-9]{2}\)?\s*$`)

	// productColorSlotPattern matches the color slot ending a product code ("MWX0339OL91")
	productColorSlotPattern = regexp.MustCompile(`([A-Z]{2})[0-9]{2}$`)

	// wordSplitPattern splits on anything that is not a letter or digit
	wordSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// Fold lowercases s and strips diacritics ("Béige" -> "beige").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// IsColorCode reports whether token is a two-letter + two-digit color code
func IsColorCode(token string) bool {
	return colorCodePattern.MatchString(token)
}

// StripEmbeddedColorCode removes a trailing color code fragment such as "BK11".
func StripEmbeddedColorCode(color string) string {
	return strings.TrimSpace(trailingColorCodePattern.ReplaceAllString(strings.TrimSpace(color), ""))
}

// ExtractColorCode returns the last color code embedded in text, upper-cased, or "".
func ExtractColorCode(text string) string {
	code := ""
	for _, word := range wordSplitPattern.Split(text, -1) {
		if IsColorCode(word) {
			code = strings.ToUpper(word)
		}
	}
	return code
}

// ColorCodeLetters returns the two-letter color prefix of a code ("OL71" -> "OL").
// The letters identify the color variant; the digits vary between seasons.
func ColorCodeLetters(code string) string {
	if len(code) < 2 {
		return ""
	}
	return strings.ToUpper(code[:2])
}

// ProductColorLetters returns the two color letters from the trailing color
// slot of a product code ("MWX0339OL91" -> "OL"), or "" when the code has none.
func ProductColorLetters(productCode string) string {
	m := productColorSlotPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(productCode)))
	if m == nil {
		return ""
	}
	return m[1]
}

// NormalizeColor reduces a color phrase to one canonical color word.
//
// Only the primary color (text before the first "/") is considered. Color codes
// and modifier words are dropped, the leading remaining token is mapped through
// the synonym table, and anything unmapped is title-cased. When every token is
// a modifier the first one is kept. The result is a fixed point:
// NormalizeColor(NormalizeColor(x)) == NormalizeColor(x).
func NormalizeColor(text string) string {
	primary, _, _ := strings.Cut(text, "/")
	tokens := colorTokens(primary)
	if len(tokens) == 0 {
		return ""
	}

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !colorModifiers[tok] {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		kept = tokens
	}

	lead := kept[0]
	if canonical, ok := colorSynonyms[lead]; ok {
		return canonical
	}
	return cases.Title(language.Und).String(lead)
}

// colorTokens folds and splits a color phrase, dropping embedded color codes
func colorTokens(text string) []string {
	words := wordSplitPattern.Split(Fold(text), -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" || IsColorCode(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// ColorFamily returns the coarse family keywords for a normalized color, or nil.
func ColorFamily(normalized string) []string {
	key := Fold(normalized)
	if key == "" {
		return nil
	}
	for _, members := range colorFamilies {
		for _, m := range members {
			if m == key {
				out := make([]string, len(members))
				copy(out, members)
				return out
			}
		}
	}
	return nil
}

// ColorAliases returns the folded canonical color followed by every synonym
// that normalizes to it ("Grey" -> grey, ash, charcoal, graphite, gray).
func ColorAliases(normalized string) []string {
	key := Fold(strings.TrimSpace(normalized))
	if key == "" {
		return nil
	}
	var aliases []string
	for synonym, canonical := range colorSynonyms {
		if synonym != key && Fold(canonical) == key {
			aliases = append(aliases, synonym)
		}
	}
	slices.Sort(aliases)
	return append([]string{key}, aliases...)
}

// IsColorWord reports whether a lowercased token names a color
func IsColorWord(token string) bool {
	if _, ok := colorSynonyms[token]; ok {
		return true
	}
	for _, members := range colorFamilies {
		for _, m := range members {
			if m == token {
				return true
			}
		}
	}
	return false
}

// ColorSimilarity compares two raw color phrases: 1.0 for an exact or alias
// match after normalization, 0.9 when one contains the other, else 0.
func ColorSimilarity(a, b string) float64 {
	na, nb := NormalizeColor(a), NormalizeColor(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	la, lb := Fold(na), Fold(nb)
	rawA, rawB := Fold(StripEmbeddedColorCode(a)), Fold(StripEmbeddedColorCode(b))
	if strings.Contains(la, lb) || strings.Contains(lb, la) ||
		strings.Contains(rawA, lb) || strings.Contains(rawB, la) {
		return 0.9
	}
	return 0
}
