// Command benchmark measures a running Linkcard server: latency per URL
// and how often each card field is filled in.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL   = flag.String("api-url", "http://localhost:8080", "Linkcard API base URL")
	apiKey   = flag.String("api-key", "", "API key for authenticated requests")
	runs     = flag.Int("runs", 2, "Number of runs per URL; runs after the first usually hit the cache")
	urlsFile = flag.String("urls", "", "File with one URL per line (default: built-in marketplace list)")
	output   = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// defaultURLs cover the marketplaces with site-specific handling.
var defaultURLs = []string{
	"https://item.gmarket.co.kr/Item?goodscode=2846685655",
	"https://itempage3.auction.co.kr/DetailView.aspx?itemno=B123456789",
	"https://www.11st.co.kr/products/5529114484",
	"https://www.coupang.com/vp/products/7335597976",
	"https://smartstore.naver.com/main/products/5738982204",
	"https://example.com",
}

type resolveRequest struct {
	URL string `json:"url"`
}

type resolveResponse struct {
	Success     bool       `json:"success"`
	Data        *card      `json:"data"`
	Source      string     `json:"source"`
	FetchMethod string     `json:"fetch_method"`
	CacheStatus string     `json:"cache_status"`
	Timing      timingInfo `json:"timing"`
	Error       *errorInfo `json:"error,omitempty"`
}

type card struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Price       *string `json:"price"`
	Domain      string  `json:"domain"`
}

type timingInfo struct {
	TotalMs int64 `json:"total_ms"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run         int    `json:"run"`
	TotalMs     int64  `json:"total_ms"`
	Source      string `json:"source"`
	FetchMethod string `json:"fetch_method,omitempty"`
	CacheHit    bool   `json:"cache_hit"`
	HasTitle    bool   `json:"has_title"`
	HasImage    bool   `json:"has_image"`
	HasPrice    bool   `json:"has_price"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

type urlResult struct {
	URL  string      `json:"url"`
	Runs []runResult `json:"runs"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	urls, err := loadURLs(*urlsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading URL list: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Linkcard Benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("URLs:      %d\n", len(urls))
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	client := &http.Client{Timeout: 90 * time.Second}
	for _, u := range urls {
		fmt.Printf("Resolving %s ...\n", u)
		ur := urlResult{URL: u}
		for i := 1; i <= *runs; i++ {
			rr := benchmarkURL(client, u, i)
			if rr.Success {
				fmt.Printf("  Run %d: %s  %dms  cache=%v\n", i, rr.Source, rr.TotalMs, rr.CacheHit)
			} else {
				fmt.Printf("  Run %d: FAILED: %s\n", i, rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}
		report.Results = append(report.Results, ur)
	}
	fmt.Println()

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func loadURLs(path string) ([]string, error) {
	if path == "" {
		return defaultURLs, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(client *http.Client, u string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(resolveRequest{URL: u})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/resolve", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Success
	rr.TotalMs = sr.Timing.TotalMs
	rr.Source = sr.Source
	rr.FetchMethod = sr.FetchMethod
	rr.CacheHit = sr.CacheStatus == "hit"
	if sr.Data != nil {
		rr.HasTitle = sr.Data.Title != nil
		rr.HasImage = sr.Data.Image != nil
		rr.HasPrice = sr.Data.Price != nil
	}
	if sr.Error != nil {
		rr.Error = sr.Error.Message
	}
	return rr
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 96))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tFirst\tSource\tMethod\tTitle\tImage\tPrice\n")
	fmt.Fprintf(w, "───\t─────\t──────\t──────\t─────\t─────\t─────\n")

	for _, r := range results {
		if len(r.Runs) == 0 || !r.Runs[0].Success {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\t-\t-\n", truncateURL(r.URL, 48))
			continue
		}
		first := r.Runs[0]
		fmt.Fprintf(w, "%s\t%dms\t%s\t%s\t%s\t%s\t%s\n",
			truncateURL(r.URL, 48),
			first.TotalMs,
			first.Source,
			orDash(first.FetchMethod),
			mark(first.HasTitle),
			mark(first.HasImage),
			mark(first.HasPrice),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 96))
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncateURL(u string, n int) string {
	if len(u) <= n {
		return u
	}
	return u[:n-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
