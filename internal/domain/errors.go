package domain

import "errors"

var (
	// ErrNotFound is returned when a store lookup has no matching row
	ErrNotFound = errors.New("record not found")

	// ErrCacheMiss is returned when a URL has no cached resolution
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidListing is returned when a listing carries neither a URL nor a title
	ErrInvalidListing = errors.New("invalid listing")

	// ErrStoreUnavailable is returned when the catalog store cannot be reached or queried
	ErrStoreUnavailable = errors.New("catalog store unavailable")

	// ErrCacheUnavailable is returned when the cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrRemoteFailure is returned when a remote resolver request fails
	ErrRemoteFailure = errors.New("remote resolver request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
