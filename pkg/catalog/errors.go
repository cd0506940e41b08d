package catalog

import "errors"

var (
	// ErrNotConfigured means no ListenNotes API key is set.
	ErrNotConfigured = errors.New("listennotes api key is not configured")
	// ErrRateLimited maps HTTP 429.
	ErrRateLimited = errors.New("api rate limit exceeded, please try again later")
	// ErrInvalidKey maps HTTP 401.
	ErrInvalidKey = errors.New("invalid api key, please check your listennotes api key")
	// ErrNotFound maps HTTP 404.
	ErrNotFound = errors.New("resource not found")
)
