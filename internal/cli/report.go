package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/tracker"
)

const maxListed = 10

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printReport renders the human-readable summary of one scan.
func printReport(w io.Writer, res *model.ScanResult) {
	fmt.Fprintf(w, "%s %s (%s, %s)\n", colorHeading("Scan of"), res.URL, res.Mode, res.Duration.Round(time.Millisecond))
	if res.ID != "" {
		fmt.Fprintf(w, "  id:     %s\n", res.ID)
	}
	if res.Metadata.Title != "" {
		fmt.Fprintf(w, "  title:  %s\n", res.Metadata.Title)
	}
	if res.Metadata.Description != "" {
		fmt.Fprintf(w, "  about:  %s\n", res.Metadata.Description)
	}

	ov := res.Overview
	if ov == nil {
		return
	}

	if sh := ov.SecurityHeaders; sh != nil {
		section(w, "Security headers")
		fmt.Fprintf(w, "  grade %s (%d/%d)\n", formatGrade(sh.Grade), sh.Score, sh.MaxScore)
		if len(sh.MissingHeaders) > 0 {
			fmt.Fprintf(w, "  missing: %s\n", strings.Join(sh.MissingHeaders, ", "))
		}
	}

	if cert := ov.SSLCertificate; cert != nil {
		section(w, "TLS certificate")
		status := "valid"
		if !cert.Valid {
			status = "invalid"
		}
		fmt.Fprintf(w, "  %s, issued by %s, expires in %d days\n", formatStatusWithColor(status), cert.Issuer, cert.DaysUntilExpiry)
	}

	if t := ov.Technologies; t != nil {
		var techs []string
		for _, group := range [][]string{t.CMS, t.Frameworks, t.Libraries, t.Analytics, t.TagManagers, t.PaymentGateways, t.Hosting} {
			techs = append(techs, group...)
		}
		if len(techs) > 0 {
			section(w, "Technologies")
			fmt.Fprintf(w, "  %s\n", strings.Join(limit(techs), ", "))
		}
	}

	if si := ov.ServerInfo; si != nil {
		section(w, "Server")
		parts := []string{}
		if si.IP != "" {
			parts = append(parts, si.IP)
		}
		if si.Location != nil && si.Location.Country != "" {
			parts = append(parts, si.Location.Country)
		}
		if si.ServerSoftware != "" {
			parts = append(parts, si.ServerSoftware)
		}
		if si.CDNDetected {
			parts = append(parts, "CDN "+si.CDNProvider)
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(parts, " · "))
	}

	if d := ov.DNSRecords; d != nil {
		section(w, "DNS")
		if len(d.A) > 0 {
			fmt.Fprintf(w, "  A     %s\n", strings.Join(d.A, ", "))
		}
		if len(d.NS) > 0 {
			fmt.Fprintf(w, "  NS    %s\n", strings.Join(d.NS, ", "))
		}
		if d.SPF != "" {
			fmt.Fprintf(w, "  SPF   %s\n", d.SPF)
		}
		if d.DMARC != "" {
			fmt.Fprintf(w, "  DMARC %s\n", d.DMARC)
		}
	}

	if wd := ov.WhoisData; wd != nil {
		section(w, "WHOIS")
		fmt.Fprintf(w, "  registrar %s", wd.Registrar)
		if wd.CreatedDate != "" {
			fmt.Fprintf(w, ", created %s", wd.CreatedDate)
		}
		if wd.ExpiryDate != "" {
			fmt.Fprintf(w, ", expires %s", wd.ExpiryDate)
		}
		fmt.Fprintln(w)
	}

	if u := ov.Uptime; u != nil {
		section(w, "Uptime")
		status := "online"
		if !u.IsOnline {
			status = "offline"
		}
		fmt.Fprintf(w, "  %s, HTTP %d in %dms\n", formatStatusWithColor(status), u.ResponseCode, u.ResponseTime)
	}

	if p := ov.Performance; p != nil {
		section(w, "Performance")
		fmt.Fprintf(w, "  load %dms, %d bytes, compression %t\n", p.LoadTime, p.PageSize, p.Compression)
	}
	if c := ov.CarbonFootprint; c != nil {
		fmt.Fprintf(w, "  carbon %s (%.3fg CO2, cleaner than %d%%)\n", formatGrade(c.Rating), c.CO2Grams, c.CleanerThan)
	}

	if ce := ov.ConsoleErrors; ce != nil && (ce.ErrorCount > 0 || ce.WarningCount > 0) {
		section(w, "Console")
		fmt.Fprintf(w, "  %s errors, %s warnings\n", colorError(ce.ErrorCount), colorWarn(ce.WarningCount))
	}

	if len(res.APIs) > 0 {
		section(w, fmt.Sprintf("API endpoints (%d)", len(res.APIs)))
		for _, api := range limit(res.APIs) {
			fmt.Fprintf(w, "  %s\n", api)
		}
	}
}

func printHistory(w io.Writer, scans []tracker.ScanSummary) {
	if len(scans) == 0 {
		fmt.Fprintln(w, "no scans recorded")
		return
	}
	for _, s := range scans {
		fmt.Fprintf(w, "%s  %s  %-8s %s  %s  %s\n",
			colorInfo(s.ID), s.ScannedAt.Local().Format("2006-01-02 15:04"), s.Mode,
			formatGrade(s.SecurityGrade), s.URL, s.Title)
	}
}

func printDiff(w io.Writer, d *tracker.ScanDiff) {
	fmt.Fprintf(w, "%s %s → %s (%s)\n", colorHeading("Diff"), d.BaseID, d.HeadID, d.Site)
	if len(d.ChangedCategories) == 0 {
		fmt.Fprintln(w, "  no changes")
		return
	}
	fmt.Fprintf(w, "  changed: %s\n", strings.Join(d.ChangedCategories, ", "))
	for _, api := range d.AddedAPIs {
		fmt.Fprintf(w, "  %s %s\n", colorSuccess("+"), api)
	}
	for _, api := range d.RemovedAPIs {
		fmt.Fprintf(w, "  %s %s\n", colorError("-"), api)
	}
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", colorHeading(title))
}

func limit(items []string) []string {
	if len(items) <= maxListed {
		return items
	}
	out := append([]string(nil), items[:maxListed]...)
	return append(out, fmt.Sprintf("… %d more", len(items)-maxListed))
}
