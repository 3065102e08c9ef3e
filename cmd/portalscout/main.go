package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tracklight/portalscout"
)

func main() {
	queries := flag.String("queries", "", "comma separated search queries")
	endpoint := flag.String("endpoint", "", "search engine endpoint URL")
	apiKey := flag.String("api-key", "", "search engine API key (optional)")
	delay := flag.Duration("delay", 2*time.Second, "delay between page requests")
	maxPages := flag.Int("max-pages", 3, "result pages to fetch per query")
	format := flag.String("format", "json", "output format: json or csv")
	outPath := flag.String("out", "", "output file (defaults to stdout)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(*queries, *endpoint, *apiKey, *delay, *maxPages, *format, *outPath); err != nil {
		log.Fatal().Err(err).Msg("portalscout failed")
	}
}

func run(queries, endpoint, apiKey string, delay time.Duration, maxPages int, format, outPath string) error {
	scout, err := portalscout.New(portalscout.Config{
		Queries:        splitQueries(queries),
		SearchEndpoint: endpoint,
		APIKey:         apiKey,
		Delay:          delay,
		MaxPages:       maxPages,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	portals, err := scout.Run(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("portals", len(portals)).Msg("scan complete")

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch format {
	case "json":
		return portalscout.WriteJSON(out, portals)
	case "csv":
		return portalscout.WriteCSV(out, portals)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func splitQueries(s string) []string {
	var queries []string
	for _, q := range strings.Split(s, ",") {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	return queries
}
