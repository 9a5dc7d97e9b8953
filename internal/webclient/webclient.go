package webclient

import (
	"context"
)

// WebClient performs single HTTP exchanges against a target site.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}
