package webclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
)

// RodRenderer renders pages with go-rod. Like ChromedpRenderer it launches a
// dedicated browser per call.
type RodRenderer struct {
	cfg    Config
	logger logging.Logger
}

func NewRodRenderer(cfg Config, logger logging.Logger) *RodRenderer {
	return &RodRenderer{
		cfg:    cfg.withDefaults(),
		logger: logger.With(logging.Field{Key: "backend", Value: "rod"}),
	}
}

func (r *RodRenderer) launcher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Set("no-sandbox", "").
		Set("disable-dev-shm-usage", "").
		Set("disable-gpu", "").
		Headless(r.cfg.Headless)
	if r.cfg.BrowserPath != "" {
		l = l.Bin(r.cfg.BrowserPath)
	}
	return l
}

func (r *RodRenderer) Render(ctx context.Context, url string, opts RenderOptions) (*model.RenderedPage, error) {
	l := r.launcher(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() { _ = browser.Close() }()
	_ = browser.IgnoreCertErrors(true)

	p, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = p.Close() }()

	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.cfg.UserAgent}); err != nil {
		return nil, fmt.Errorf("set user agent: %w", err)
	}
	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width: desktopWidth, Height: desktopHeight, DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	rec := newPageRecorder()
	go p.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			if e.Request != nil {
				rec.request(e.Request.URL, e.Request.Method, string(e.Type))
			}
		},
		func(e *proto.NetworkResponseReceived) {
			if e.Response == nil {
				return
			}
			headers := http.Header{}
			for k, v := range e.Response.Headers {
				headers.Set(k, v.Str())
			}
			rec.response(e.Response.URL, string(e.Type), e.Response.Status, e.Response.StatusText, headers)
		},
		func(e *proto.RuntimeConsoleAPICalled) {
			parts := make([]string, 0, len(e.Args))
			for _, arg := range e.Args {
				parts = append(parts, remoteObjectText(arg.Description, arg.Value.JSON("", "")))
			}
			rec.log(string(e.Type), strings.Join(parts, " "))
		},
		func(e *proto.RuntimeExceptionThrown) {
			if e.ExceptionDetails != nil {
				rec.log("pageerror", e.ExceptionDetails.Text)
			}
		},
	)()

	r.logger.Debug("navigating", logging.Field{Key: "url", Value: url})
	start := time.Now()
	nav := p.Timeout(r.cfg.NavigationTimeout)
	if err := nav.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := nav.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %w", url, err)
	}
	if err := p.WaitIdle(r.cfg.IdleAfter); err != nil {
		r.logger.Debug("page did not go idle", logging.Field{Key: "error", Value: err})
	}
	loadTime := time.Since(start)

	result := &model.RenderedPage{RequestedURL: url, LoadTime: loadTime}
	if result.HTML, err = p.HTML(); err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	if info, err := p.Info(); err == nil {
		result.FinalURL = info.URL
	}

	rec.fill(result)
	result.Timing = evalInto[model.NavigationTiming](p, "() => "+timingScript)
	result.WebVitals = evalInto[model.WebVitals](p, "() => "+vitalsScript)

	if cookies, err := p.Cookies(nil); err == nil {
		for _, c := range cookies {
			result.Cookies = append(result.Cookies, model.Cookie{
				Name: c.Name, Value: c.Value, Domain: c.Domain, Secure: c.Secure, HTTPOnly: c.HTTPOnly,
			})
		}
	}

	if !opts.SkipScreenshots {
		shots, err := r.screenshots(p)
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

// evalInto runs js and decodes its result, returning nil when evaluation
// fails or yields null.
func evalInto[T any](p *rod.Page, js string) *T {
	obj, err := p.Eval(js)
	if err != nil || obj == nil || obj.Value.Nil() {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(obj.Value.JSON("", "")), &v); err != nil {
		return nil
	}
	return &v
}

func (r *RodRenderer) screenshots(p *rod.Page) (*model.Screenshots, error) {
	quality := screenshotQuality
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatJpeg, Quality: &quality}

	var desktop, mobile []byte
	err := rod.Try(func() {
		var err error
		if desktop, err = p.Screenshot(false, req); err != nil {
			panic(err)
		}
		p.MustSetViewport(mobileWidth, mobileHeight, 2, true)
		if mobile, err = p.Screenshot(false, req); err != nil {
			panic(err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &model.Screenshots{
		Desktop:    jpegDataURL(desktop),
		Mobile:     jpegDataURL(mobile),
		CapturedAt: time.Now(),
	}, nil
}

func (r *RodRenderer) Close() error {
	return nil
}
