package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/utils"
	"github.com/raysh454/sitelens/internal/webclient"
)

type RobotsProbe struct {
	wc     webclient.WebClient
	logger logging.Logger
}

func NewRobotsProbe(wc webclient.WebClient, logger logging.Logger) *RobotsProbe {
	return &RobotsProbe{wc: wc, logger: logger.With(logging.Field{Key: "probe", Value: "robots"})}
}

// Probe fetches /robots.txt next to target. A missing or unreachable file
// yields Exists=false with the reason in Errors.
func (p *RobotsProbe) Probe(ctx context.Context, target string) *model.RobotsTxt {
	body, _, err := fetchSibling(ctx, p.wc, target, "/robots.txt")
	if err != nil {
		p.logger.Debug("robots.txt unavailable", logging.Field{Key: "error", Value: err})
		return RobotsUnavailable(err.Error())
	}

	rules, sitemaps, delay := ParseRobots(body)
	return &model.RobotsTxt{
		Exists:     true,
		Content:    body,
		Rules:      rules,
		Sitemaps:   sitemaps,
		CrawlDelay: delay,
		Errors:     []string{},
	}
}

// RobotsUnavailable is the record for a robots.txt that could not be read.
func RobotsUnavailable(reason string) *model.RobotsTxt {
	return &model.RobotsTxt{
		Rules:    []model.RobotsRule{},
		Sitemaps: []string{},
		Errors:   []string{reason},
	}
}

// ParseRobots reads robots.txt line by line. Allow and Disallow lines belong
// to the most recent User-agent group and are dropped before the first one.
func ParseRobots(content string) (rules []model.RobotsRule, sitemaps []string, crawlDelay int) {
	rules = make([]model.RobotsRule, 0)
	sitemaps = make([]string, 0)
	var current *model.RobotsRule

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "user-agent":
			if current != nil {
				rules = append(rules, *current)
			}
			current = &model.RobotsRule{UserAgent: value, Allow: []string{}, Disallow: []string{}}
		case "disallow":
			if current != nil && value != "" {
				current.Disallow = append(current.Disallow, value)
			}
		case "allow":
			if current != nil && value != "" {
				current.Allow = append(current.Allow, value)
			}
		case "sitemap":
			sitemaps = append(sitemaps, value)
		case "crawl-delay":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				crawlDelay = int(f)
			}
		}
	}
	if current != nil {
		rules = append(rules, *current)
	}
	return rules, sitemaps, crawlDelay
}

// fetchSibling GETs path on target's origin and fails on any non-2xx status.
func fetchSibling(ctx context.Context, wc webclient.WebClient, target, path string) (string, *webclient.Response, error) {
	origin := utils.OriginOf(target)
	if origin == "" {
		return "", nil, fmt.Errorf("invalid target %q", target)
	}
	resp, err := wc.Get(ctx, origin+path)
	if err != nil {
		return "", nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp, fmt.Errorf("request failed with status code %d", resp.StatusCode)
	}
	return string(resp.Body), resp, nil
}
