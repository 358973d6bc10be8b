package content

import (
	"context"
	"time"
)

// Response is a raw upstream reply. Body is the untyped JSON payload.
type Response struct {
	Path       string
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves raw JSON documents from the content API.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (Response, error)
}

// TweetLookup returns the latest post of a microblog account.
type TweetLookup interface {
	Latest(ctx context.Context, handle string) (*Tweet, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces sync run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Fingerprinter digests a value so unchanged content can be recognised.
type Fingerprinter interface {
	Fingerprint(v any) (string, error)
}
