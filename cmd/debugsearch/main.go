package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gooptimize/internal/fetch"
	"github.com/hyperifyio/gooptimize/internal/search"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		q        string
		limit    int
		serpKey  string
		searxURL string
		file     string
		scrape   bool
	)
	flag.StringVar(&q, "q", "chatbots guide 2023", "Topic to resolve")
	flag.IntVar(&limit, "limit", 5, "Maximum references")
	flag.StringVar(&serpKey, "serpapi.key", os.Getenv("SERPAPI_KEY"), "SerpAPI key")
	flag.StringVar(&searxURL, "searx.url", os.Getenv("SEARX_URL"), "SearxNG base URL")
	flag.StringVar(&file, "search.file", os.Getenv("SEARCH_FILE"), "Offline results file")
	flag.BoolVar(&scrape, "scrape", false, "Skip the API tier and scrape the results page")
	flag.Parse()

	hc := &http.Client{Timeout: 20 * time.Second}
	r := &search.Resolver{
		Scraper: &search.GoogleScraper{Fetcher: &fetch.Client{
			UserAgent: fetch.BrowserUserAgent,
			Headers:   fetch.BrowserHeaders(),
		}},
	}
	switch {
	case scrape:
	case file != "":
		r.API = &search.FileProvider{Path: file}
	case serpKey != "":
		r.API = &search.SerpAPI{APIKey: serpKey, HTTPClient: hc}
	case searxURL != "":
		r.API = &search.SearxNG{BaseURL: searxURL, HTTPClient: hc, UserAgent: "debugsearch/1.0"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res := r.Resolve(ctx, q, limit)
	if len(res) == 0 {
		fmt.Println("no references found")
		os.Exit(1)
	}
	for _, ref := range res {
		fmt.Printf("%d. [%s] %s\n   %s\n", ref.Rank, ref.Source, ref.Title, ref.URL)
	}
}
