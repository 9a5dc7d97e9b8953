package webclient

import (
	"sync"

	"github.com/raysh454/sitelens/internal/logging"
)

var registerOnce sync.Once

// RegisterDefaultBackends registers the nethttp client and the chromedp and
// rod renderers. It is safe to call more than once.
func RegisterDefaultBackends() {
	registerOnce.Do(func() {
		RegisterBackend(string(ClientNetHTTP), func(cfg Config, logger logging.Logger) (WebClient, error) {
			return NewNetHTTPClient(cfg, logger, nil)
		})

		RegisterRenderer(string(ClientChromedp), func(cfg Config, logger logging.Logger) (Renderer, error) {
			return NewChromedpRenderer(cfg, logger), nil
		})

		RegisterRenderer(string(ClientRod), func(cfg Config, logger logging.Logger) (Renderer, error) {
			return NewRodRenderer(cfg, logger), nil
		})
	})
}
