package probe

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/webclient"
)

const (
	DefaultWaybackURL = "https://archive.org/wayback/available"
	DefaultCDXURL     = "https://web.archive.org/cdx/search/cdx"
)

type UptimeProbe struct {
	WaybackURL     string
	CDXURL         string
	HeadTimeout    time.Duration
	ArchiveTimeout time.Duration

	wc     webclient.WebClient
	logger logging.Logger
}

func NewUptimeProbe(wc webclient.WebClient, logger logging.Logger) *UptimeProbe {
	return &UptimeProbe{
		WaybackURL:     DefaultWaybackURL,
		CDXURL:         DefaultCDXURL,
		HeadTimeout:    10 * time.Second,
		ArchiveTimeout: 5 * time.Second,
		wc:             wc,
		logger:         logger.With(logging.Field{Key: "probe", Value: "uptime"}),
	}
}

// Probe times a HEAD request to target and asks the web archive for
// snapshots. An unreachable target is reported offline with code 0.
func (p *UptimeProbe) Probe(ctx context.Context, target string) *model.Uptime {
	up := &model.Uptime{LastChecked: time.Now(), HistoricalData: &model.HistoricalData{}}

	headCtx, cancel := context.WithTimeout(ctx, p.HeadTimeout)
	start := time.Now()
	resp, err := p.wc.Do(headCtx, &webclient.Request{Method: "HEAD", URL: target})
	cancel()
	if err != nil {
		p.logger.Debug("head request failed", logging.Field{Key: "error", Value: err})
		return up
	}
	up.IsOnline = resp.StatusCode < 400
	up.ResponseCode = resp.StatusCode
	up.ResponseTime = time.Since(start).Milliseconds()

	up.HistoricalData = p.history(ctx, target)
	return up
}

type waybackAvailability struct {
	ArchivedSnapshots struct {
		Closest *struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

func (p *UptimeProbe) history(ctx context.Context, target string) *model.HistoricalData {
	hist := &model.HistoricalData{}
	clean := strings.TrimPrefix(strings.TrimPrefix(target, "https://"), "http://")

	var avail waybackAvailability
	if err := p.getJSON(ctx, p.WaybackURL+"?url="+url.QueryEscape(clean), &avail); err != nil {
		p.logger.Debug("wayback unavailable", logging.Field{Key: "error", Value: err})
		return hist
	}
	closest := avail.ArchivedSnapshots.Closest
	if closest == nil {
		return hist
	}
	hist.WaybackAvailable = true
	hist.LastSnapshot = closest.Timestamp
	hist.ArchiveURL = closest.URL

	var rows [][]string
	cdx := p.CDXURL + "?url=" + url.QueryEscape(clean) + "&output=json&limit=1"
	if err := p.getJSON(ctx, cdx, &rows); err == nil && len(rows) > 1 && len(rows[1]) > 1 {
		hist.FirstSnapshot = rows[1][1]
	}
	return hist
}

func (p *UptimeProbe) getJSON(ctx context.Context, u string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, p.ArchiveTimeout)
	defer cancel()
	resp, err := p.wc.Get(ctx, u)
	if err != nil {
		return err
	}
	return json.Unmarshal(resp.Body, v)
}
