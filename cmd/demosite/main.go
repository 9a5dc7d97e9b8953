// Command demosite starts a local versioned website to scan.
// Usage: go run ./cmd/demosite [port]
// Default port: 9999
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/raysh454/sitelens/internal/demosite"
	"github.com/raysh454/sitelens/internal/logging"
)

func main() {
	cfg := demosite.DefaultConfig()

	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   SiteLens Demo Site")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Pages change between versions so repeated scans")
	fmt.Println("show up as history diffs:")
	fmt.Println("  - Security headers (CSP, HSTS, X-Frame-Options)")
	fmt.Println("  - Analytics, payment and font scripts")
	fmt.Println("  - API calls, forms and structured data")
	fmt.Println("  - robots.txt and sitemap.xml")
	fmt.Println()
	fmt.Printf("Try: sitelens scan http://localhost:%d/\n\n", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	site := demosite.New(cfg, logging.NewDevelopmentLogger("demosite"))
	if err := site.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
