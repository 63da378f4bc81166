package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Words       []string
	// Every FreqEvery-th request per worker is a frequency lookup; zero
	// means searches only.
	FreqEvery int
}

const defaultWords = "the,cat,index,search,word,page,frequency,tree,text,missing"

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	words := flag.String("words", defaultWords, "comma-separated words to query")
	freqEvery := flag.Int("freq-every", 3, "send a frequency query every n requests (0 = never)")
	flag.Parse()

	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Words:       strings.Split(*words, ","),
		FreqEvery:   *freqEvery,
	}

	fmt.Println("=== wordindex load test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Words:       %d\n\n", len(cfg.Words))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	stats := run(ctx, cfg, newClient(cfg.Concurrency))
	if !stats.Report(os.Stdout, time.Since(start)) {
		os.Exit(1)
	}
}

func newClient(concurrency int) *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// run drives cfg.Concurrency workers against the query API until
// cfg.Duration elapses or ctx is done.
func run(ctx context.Context, cfg Config, client *http.Client) *Stats {
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	stats := NewStats()
	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := worker; ctx.Err() == nil; i++ {
				kind := "search"
				if cfg.FreqEvery > 0 && i%cfg.FreqEvery == 0 {
					kind = "frequency"
				}
				word := cfg.Words[i%len(cfg.Words)]
				latency, status, cache := query(ctx, client, cfg.BaseURL, kind, word)
				if ctx.Err() != nil && status == 0 {
					return
				}
				stats.Record(kind, latency, status, cache)
			}
		}(w)
	}
	wg.Wait()
	return stats
}

func query(ctx context.Context, client *http.Client, baseURL, kind, word string) (time.Duration, int, string) {
	target := fmt.Sprintf("%s/api/v1/%s?q=%s&limit=10", baseURL, kind, url.QueryEscape(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, 0, ""
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return time.Since(start), 0, ""
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return time.Since(start), resp.StatusCode, resp.Header.Get("X-Cache")
}
