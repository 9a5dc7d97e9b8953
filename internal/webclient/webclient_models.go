package webclient

import (
	"net/http"
	"time"
)

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
	// MaxRedirects overrides the client's redirect cap for this request when
	// greater than zero.
	MaxRedirects int
}

type Response struct {
	Request *Request
	// FinalURL is the URL after redirects.
	FinalURL   string
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
	Elapsed    time.Duration
}
