package normalize

// colorModifiers are non-color words stripped from color phrases before the lead token is chosen
var colorModifiers = map[string]bool{
	"classic": true, "dark": true, "pale": true, "light": true, "deep": true,
	"bright": true, "washed": true, "vintage": true, "heritage": true, "rich": true,
	"soft": true, "true": true, "mid": true, "muted": true, "dusty": true,
	"faded": true, "antique": true, "warm": true, "cool": true, "new": true,
	"the": true, "and": true, "with": true, "mix": true, "marl": true,
}

// colorSynonyms maps a lead color token to its canonical catalog color.
// Every value must normalize to itself.
var colorSynonyms = map[string]string{
	// Navy
	"indigo": "Navy", "midnight": "Navy", "ink": "Navy", "marine": "Navy", "navy": "Navy",
	// Green
	"forest": "Green", "bottle": "Green", "racing": "Green", "emerald": "Green", "green": "Green",
	// Grey
	"charcoal": "Grey", "gray": "Grey", "graphite": "Grey", "ash": "Grey", "grey": "Grey",
	// Black
	"jet": "Black", "onyx": "Black", "ebony": "Black", "noir": "Black", "black": "Black",
	// Cream
	"ivory": "Cream", "ecru": "Cream", "cream": "Cream",
	// Brown
	"chocolate": "Brown", "mocha": "Brown", "espresso": "Brown", "bark": "Brown", "brown": "Brown",
	// Red
	"burgundy": "Red", "wine": "Red", "claret": "Red", "crimson": "Red", "merlot": "Red", "red": "Red",
	// Blue
	"cobalt": "Blue", "sky": "Blue", "denim": "Blue", "blue": "Blue",
	// Stone
	"sand": "Stone", "taupe": "Stone", "stone": "Stone",
}

// colorFamilies groups canonical colors into coarse families used for widened recall
var colorFamilies = map[string][]string{
	"blue":    {"navy", "blue", "teal", "petrol"},
	"green":   {"green", "olive", "sage", "khaki", "moss", "army", "fern"},
	"grey":    {"grey", "silver", "slate", "smoke"},
	"brown":   {"brown", "tan", "camel", "cognac", "chestnut", "rust", "tobacco"},
	"red":     {"red", "pink", "rose", "berry", "raspberry"},
	"neutral": {"cream", "stone", "beige", "white", "natural", "oatmeal", "mushroom"},
	"black":   {"black"},
	"yellow":  {"yellow", "mustard", "gold", "ochre"},
	"orange":  {"orange", "amber"},
	"purple":  {"purple", "plum", "lilac", "violet"},
}

// defaultStopWords are retailer, audience and generic garment words carrying no style signal
var defaultStopWords = []string{
	// English
	"the", "and", "for", "with", "from", "new", "our", "you",
	// Audience
	"men", "mens", "man", "women", "womens", "woman", "ladies", "kids", "kid",
	"boys", "girls", "unisex", "childrens", "children", "junior",
	// Generic garment and listing words
	"jacket", "jackets", "coat", "coats", "clothing", "apparel", "outerwear",
	"sale", "size", "sizes", "colour", "color", "colours", "colors", "style",
	"buy", "online", "shop", "free", "delivery", "uk", "official",
}

// defaultPreservedWords differentiate styles and are never treated as stop words
var defaultPreservedWords = []string{
	"quilted", "waxed", "wax", "padded", "hooded", "lined", "lightweight",
	"showerproof", "waterproof", "insulated", "fleece", "tartan", "cord", "long",
}

// garmentTypes maps raw words to a canonical garment type
var garmentTypes = map[string]string{
	"jacket": "jacket", "jackets": "jacket", "blouson": "jacket", "bomber": "jacket",
	"anorak": "jacket", "overshirt": "jacket",
	"coat": "coat", "coats": "coat", "parka": "coat", "mac": "coat", "trench": "coat",
	"overcoat": "coat", "raincoat": "coat", "duffle": "coat",
	"gilet": "gilet", "gilets": "gilet", "vest": "gilet", "waistcoat": "gilet", "bodywarmer": "gilet",
	"shirt": "shirt", "shirts": "shirt", "polo": "shirt",
	"tee": "tshirt", "tshirt": "tshirt",
	"jumper": "knitwear", "sweater": "knitwear", "knit": "knitwear", "cardigan": "knitwear",
	"pullover": "knitwear", "sweatshirt": "knitwear", "hoodie": "knitwear", "crew": "knitwear",
	"trousers": "trousers", "chinos": "trousers", "jeans": "trousers", "pants": "trousers",
	"shorts": "shorts",
	"hat": "hat", "cap": "hat", "beanie": "hat",
	"scarf": "scarf", "scarves": "scarf", "snood": "scarf",
	"boots": "boots", "boot": "boots", "wellingtons": "boots", "wellies": "boots",
	"shoes": "shoes", "trainers": "shoes", "loafers": "shoes",
	"bag": "bag", "holdall": "bag", "backpack": "bag", "tote": "bag",
	"dress": "dress", "skirt": "skirt",
	"gloves": "gloves", "mittens": "gloves",
}
