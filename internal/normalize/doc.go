// Package normalize turns raw scraped color and title text into comparable tokens.
//
// Every function here is pure. The color helpers collapse a free-text color
// phrase to a single canonical word ("Dark Indigo / Tan" -> "Navy") and pull
// out the two-letter + two-digit supplier color codes ("OL71") that retailer
// pages append to color names. The Tokenizer drops retailer and category noise
// while always keeping style-differentiating words such as "quilted" or "waxed".
package normalize
