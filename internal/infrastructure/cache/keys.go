// Package cache holds the URL resolution caches consulted before any scoring.
package cache

import "strings"

// urlKey normalizes a listing URL into a cache key
func urlKey(url string) string {
	return "url:" + strings.TrimSpace(url)
}
