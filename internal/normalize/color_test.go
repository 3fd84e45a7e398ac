package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"plain color", "Olive", "Olive"},
		{"lowercase is title-cased", "sage", "Sage"},
		{"trailing code stripped", "Olive OL71", "Olive"},
		{"code only", "BK11", ""},
		{"synonym", "Indigo", "Navy"},
		{"synonym after modifier", "Dark Forest", "Green"},
		{"primary color of multi-color", "Navy/Classic Tartan", "Navy"},
		{"modifier stripped", "Classic Stone", "Stone"},
		{"only modifiers keeps first", "Dark", "Dark"},
		{"gray spelled american", "Gray Marl", "Grey"},
		{"diacritics folded", "Béige", "Beige"},
		{"hyphenated code", "Rustic-RU52", "Rustic"},
		{"nothing before slash", "/Navy", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColor(tt.input))
		})
	}
}

func TestNormalizeColor_Idempotent(t *testing.T) {
	inputs := []string{
		"", "Olive OL71", "Olive", "Dark Indigo", "Classic Tartan/Navy", "Dark",
		"pale", "Ab12 sand", "Rustic Brown", "2tone", "Sage SG91", "STONE", "Béige",
		"navy blue", "Midnight Navy", "charcoal", "  racing green  ",
	}
	for key := range colorSynonyms {
		inputs = append(inputs, key)
	}
	for key := range colorModifiers {
		inputs = append(inputs, key)
	}

	for _, in := range inputs {
		once := NormalizeColor(in)
		assert.Equal(t, once, NormalizeColor(once), "input %q", in)
	}
}

func TestNormalizeColor_SynonymTargetsAreFixedPoints(t *testing.T) {
	for key, target := range colorSynonyms {
		assert.Equal(t, target, NormalizeColor(target), "synonym %q -> %q", key, target)
	}
}

func TestNormalizeColor_StripsCodeLikeBareName(t *testing.T) {
	assert.Equal(t, NormalizeColor("Olive"), NormalizeColor("Olive OL71"))
	assert.Equal(t, NormalizeColor("Black"), NormalizeColor("Black BK11"))
}

func TestStripEmbeddedColorCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Olive OL71", "Olive"},
		{"Black BK11", "Black"},
		{"Navy (NY91)", "Navy"},
		{"Navy", "Navy"},
		{"OL71", ""},
		{"Olive OL71 Tartan", "Olive OL71 Tartan"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripEmbeddedColorCode(tt.input), "input %q", tt.input)
	}
}

func TestExtractColorCode(t *testing.T) {
	assert.Equal(t, "OL71", ExtractColorCode("Olive OL71"))
	assert.Equal(t, "SG91", ExtractColorCode("sg91 Sage"))
	assert.Equal(t, "", ExtractColorCode("Olive"))
	assert.Equal(t, "", ExtractColorCode("MWX0339OL91"))
	assert.Equal(t, "NY91", ExtractColorCode("OL71 / NY91"))
}

func TestColorCodeLetters(t *testing.T) {
	assert.Equal(t, "OL", ColorCodeLetters("OL71"))
	assert.Equal(t, "", ColorCodeLetters(""))
}

func TestProductColorLetters(t *testing.T) {
	assert.Equal(t, "OL", ProductColorLetters("MWX0339OL91"))
	assert.Equal(t, "SG", ProductColorLetters(" lqu0475sg91 "))
	assert.Equal(t, "", ProductColorLetters(""))
	assert.Equal(t, "", ProductColorLetters("UAC0001"))
}

func TestColorAliases(t *testing.T) {
	assert.Equal(t, []string{"grey", "ash", "charcoal", "graphite", "gray"}, ColorAliases("Grey"))
	assert.Equal(t, []string{"navy", "indigo", "ink", "marine", "midnight"}, ColorAliases("Navy"))
	assert.Equal(t, []string{"olive"}, ColorAliases("Olive"))
	assert.Nil(t, ColorAliases(" "))

	for _, alias := range ColorAliases("Red") {
		assert.Equal(t, "Red", NormalizeColor(alias), alias)
	}
}

func TestColorFamily(t *testing.T) {
	assert.Contains(t, ColorFamily("Navy"), "blue")
	assert.Contains(t, ColorFamily("Olive"), "green")
	assert.Nil(t, ColorFamily("Tartan"))
	assert.Nil(t, ColorFamily(""))
}

func TestColorSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"exact", "Olive", "Olive OL71", 1.0},
		{"alias via synonym", "Indigo", "Navy", 1.0},
		{"substring", "Olive Green", "Green", 0.9},
		{"different", "Olive", "Navy", 0},
		{"empty", "", "Navy", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ColorSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
