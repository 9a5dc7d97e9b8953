package webclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
)

// ChromedpRenderer renders pages in a fresh headless Chrome per call.
type ChromedpRenderer struct {
	cfg    Config
	logger logging.Logger
}

func NewChromedpRenderer(cfg Config, logger logging.Logger) *ChromedpRenderer {
	return &ChromedpRenderer{
		cfg:    cfg.withDefaults(),
		logger: logger.With(logging.Field{Key: "backend", Value: "chromedp"}),
	}
}

func (r *ChromedpRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(r.cfg.UserAgent),
		chromedp.WindowSize(desktopWidth, desktopHeight),
		chromedp.Flag("headless", r.cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if r.cfg.BrowserPath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.BrowserPath))
	}
	return opts
}

// waitNetworkIdle signals once no request has been in flight for idleAfter.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{}, 1)
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) <= 0 {
				once.Do(func() {
					idleChan <- struct{}{}
				})
			}
		})
	}

	chromedp.ListenTarget(ctx,
		func(ev any) {
			switch ev.(type) {
			case *network.EventRequestWillBeSent:
				atomic.AddInt32(&activeReqs, 1)
			case *network.EventLoadingFinished, *network.EventLoadingFailed:
				if atomic.AddInt32(&activeReqs, -1) <= 0 {
					startTimer()
				}
			}
		})

	return idleChan
}

func (r *pageRecorder) chromedpListener(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		if e.Request != nil {
			r.request(e.Request.URL, e.Request.Method, string(e.Type))
		}
	case *network.EventResponseReceived:
		if e.Response == nil {
			return
		}
		headers := http.Header{}
		for k, v := range e.Response.Headers {
			headers.Set(k, fmt.Sprint(v))
		}
		r.response(e.Response.URL, string(e.Type), int(e.Response.Status), e.Response.StatusText, headers)
	case *runtime.EventConsoleAPICalled:
		parts := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			parts = append(parts, remoteObjectText(arg.Description, string(arg.Value)))
		}
		r.log(string(e.Type), strings.Join(parts, " "))
	case *runtime.EventExceptionThrown:
		if e.ExceptionDetails == nil {
			return
		}
		msg := e.ExceptionDetails.Text
		if ex := e.ExceptionDetails.Exception; ex != nil && ex.Description != "" {
			msg = ex.Description
		}
		r.log("pageerror", msg)
	}
}

// remoteObjectText prefers the description and falls back to the JSON value
// with string quotes removed.
func remoteObjectText(description, value string) string {
	if description != "" {
		return description
	}
	return strings.Trim(value, `"`)
}

// Render navigates to url, waits for the network to go idle and collects the
// page state. The browser is torn down before Render returns.
func (r *ChromedpRenderer) Render(ctx context.Context, url string, opts RenderOptions) (*model.RenderedPage, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	// Start the browser on the tab context so a navigation timeout does not
	// take the browser down with it.
	if err := chromedp.Run(tabCtx); err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}

	rec := newPageRecorder()
	chromedp.ListenTarget(tabCtx, rec.chromedpListener)
	idle := waitNetworkIdle(tabCtx, r.cfg.IdleAfter)

	r.logger.Debug("navigating", logging.Field{Key: "url", Value: url})
	start := time.Now()
	navCtx, cancelNav := context.WithTimeout(tabCtx, r.cfg.NavigationTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, network.Enable(), runtime.Enable(), chromedp.Navigate(url)); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	select {
	case <-idle:
	case <-navCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.logger.Warn("network never went idle; using current page state",
			logging.Field{Key: "url", Value: url})
	}
	loadTime := time.Since(start)

	result := &model.RenderedPage{RequestedURL: url, LoadTime: loadTime}
	var timing *model.NavigationTiming
	var vitals *model.WebVitals
	var cookies []*network.Cookie
	err := chromedp.Run(tabCtx,
		chromedp.OuterHTML("html", &result.HTML),
		chromedp.Location(&result.FinalURL),
		chromedp.Evaluate(timingScript, &timing),
		chromedp.Evaluate(vitalsScript, &vitals, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("collect page state: %w", err)
	}

	rec.fill(result)
	result.Timing = timing
	result.WebVitals = vitals
	for _, c := range cookies {
		result.Cookies = append(result.Cookies, model.Cookie{
			Name: c.Name, Value: c.Value, Domain: c.Domain, Secure: c.Secure, HTTPOnly: c.HTTPOnly,
		})
	}

	if !opts.SkipScreenshots {
		shots, err := r.screenshots(tabCtx)
		if err != nil {
			r.logger.Warn("screenshot capture failed", logging.Field{Key: "error", Value: err})
		} else {
			result.Screenshots = shots
		}
	}

	r.logger.Info("rendered page",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "status", Value: result.StatusCode},
		logging.Field{Key: "requests", Value: len(result.Requests)},
		logging.Field{Key: "load_time", Value: loadTime.String()})
	return result, nil
}

func (r *ChromedpRenderer) screenshots(ctx context.Context) (*model.Screenshots, error) {
	var desktop, mobile []byte
	capture := func(dst *[]byte) chromedp.Action {
		return chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			*dst, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatJpeg).
				WithQuality(screenshotQuality).
				Do(ctx)
			return err
		})
	}
	err := chromedp.Run(ctx,
		chromedp.EmulateViewport(desktopWidth, desktopHeight),
		capture(&desktop),
		chromedp.EmulateViewport(mobileWidth, mobileHeight, chromedp.EmulateMobile),
		capture(&mobile),
	)
	if err != nil {
		return nil, err
	}
	return &model.Screenshots{
		Desktop:    jpegDataURL(desktop),
		Mobile:     jpegDataURL(mobile),
		CapturedAt: time.Now(),
	}, nil
}

// Close is a no-op; every Render owns and releases its own browser.
func (r *ChromedpRenderer) Close() error {
	return nil
}
