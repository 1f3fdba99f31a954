// Loadtest drives a running todo service with concurrent workers and checks
// that every created item got its own url.
//
// Usage:
//
//	go run loadtest.go -url http://localhost:8080/todo -concurrency 10 -requests 1000
//	go run loadtest.go -url http://localhost:8080/todo -requests 5000 -csv results.csv -out summary.json
//
// Each job runs a create, a patch and a get against one item. With -delete the
// item is removed afterwards and a follow-up get must answer 404.
//
// Exit codes:
//
//	0 - all jobs succeeded and every url was unique
//	1 - output files could not be written
//	2 - some jobs failed
//	3 - duplicate urls were issued
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type item struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Completed bool   `json:"completed"`
}

type stepStats struct {
	Count     int32
	Failure   int32
	Latencies []time.Duration
}

type recorder struct {
	mu          sync.Mutex
	steps       map[string]*stepStats
	statusCodes map[int]int32
	urls        map[string]int
}

func newRecorder() *recorder {
	return &recorder{
		steps:       make(map[string]*stepStats),
		statusCodes: make(map[int]int32),
		urls:        make(map[string]int),
	}
}

func (r *recorder) observe(step string, status int, dur time.Duration, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.steps[step]
	if !found {
		s = &stepStats{}
		r.steps[step] = s
	}
	s.Count++
	if !ok {
		s.Failure++
	}
	s.Latencies = append(s.Latencies, dur)
	if status != 0 {
		r.statusCodes[status]++
	}
}

func (r *recorder) issued(url string) {
	r.mu.Lock()
	r.urls[url]++
	r.mu.Unlock()
}

func (r *recorder) duplicates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dups []string
	for u, n := range r.urls {
		if n > 1 {
			dups = append(dups, u)
		}
	}
	sort.Strings(dups)
	return dups
}

func percentile(sorted []time.Duration, pct float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*pct)]
}

func sortedCopy(in []time.Duration) []time.Duration {
	out := make([]time.Duration, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type worker struct {
	client     *http.Client
	collection string
	rec        *recorder
	delete     bool
}

func (w *worker) send(step, method, url string, body any, want int, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := w.client.Do(req)
	dur := time.Since(start)
	if err != nil {
		w.rec.observe(step, 0, dur, false)
		return 0, err
	}
	defer resp.Body.Close()

	ok := resp.StatusCode == want
	w.rec.observe(step, resp.StatusCode, dur, ok)
	if !ok {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("%s %s: status %d, want %d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s %s: %w", method, url, err)
		}
	}
	return resp.StatusCode, nil
}

// run performs one job and returns the url of the item it created.
func (w *worker) run(idx int) (string, error) {
	var created item
	if _, err := w.send("create", http.MethodPost, w.collection,
		map[string]any{"title": "job " + strconv.Itoa(idx), "order": idx}, http.StatusCreated, &created); err != nil {
		return "", err
	}
	w.rec.issued(created.URL)

	var patched item
	if _, err := w.send("patch", http.MethodPatch, created.URL,
		map[string]any{"completed": true}, http.StatusOK, &patched); err != nil {
		return created.URL, err
	}
	if !patched.Completed || patched.Title != created.Title || patched.Order != idx {
		return created.URL, fmt.Errorf("patch of %s returned %+v", created.URL, patched)
	}

	var fetched item
	if _, err := w.send("get", http.MethodGet, created.URL, nil, http.StatusOK, &fetched); err != nil {
		return created.URL, err
	}
	if fetched != patched {
		return created.URL, fmt.Errorf("get of %s returned %+v, want %+v", created.URL, fetched, patched)
	}

	if !w.delete {
		return created.URL, nil
	}
	if _, err := w.send("delete", http.MethodDelete, created.URL, nil, http.StatusNoContent, nil); err != nil {
		return created.URL, err
	}
	if _, err := w.send("get-deleted", http.MethodGet, created.URL, nil, http.StatusNotFound, nil); err != nil {
		return created.URL, err
	}
	return created.URL, nil
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:8080/todo", "Collection URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of jobs to run")
		timeoutSec  = flag.Int("timeout", 10, "Per-request timeout in seconds")
		deleteItems = flag.Bool("delete", false, "Delete each item after checking it")
	)

	outJSON := flag.String("out", "", "Write JSON summary to this file (optional)")
	outCSV := flag.String("csv", "", "Write per-job CSV to this file (optional)")
	verbose := flag.Bool("v", false, "Verbose per-job logging to stdout")
	flag.Parse()

	rec := newRecorder()
	jobs := make(chan int)
	var wg sync.WaitGroup

	var success, failure int32

	var csvFile *os.File
	var csvWriter *csv.Writer
	var csvMu sync.Mutex
	if *outCSV != "" {
		f, err := os.Create(*outCSV)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create csv file: %v\n", err)
			os.Exit(1)
		}
		csvFile = f
		csvWriter = csv.NewWriter(f)
		csvWriter.Write([]string{"idx", "timestamp", "url", "ok", "duration_ms", "error"})
	}

	testStart := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w := &worker{
				client:     &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second},
				collection: *url,
				rec:        rec,
				delete:     *deleteItems,
			}
			for idx := range jobs {
				start := time.Now()
				itemURL, err := w.run(idx)
				dur := time.Since(start)

				if err != nil {
					atomic.AddInt32(&failure, 1)
				} else {
					atomic.AddInt32(&success, 1)
				}

				if csvWriter != nil {
					errText := ""
					if err != nil {
						errText = err.Error()
					}
					csvMu.Lock()
					csvWriter.Write([]string{
						strconv.Itoa(idx),
						time.Now().Format(time.RFC3339Nano),
						itemURL,
						strconv.FormatBool(err == nil),
						fmt.Sprintf("%.3f", float64(dur.Microseconds())/1000.0),
						errText,
					})
					csvMu.Unlock()
				}

				if *verbose {
					fmt.Printf("[%d] idx=%d url=%s dur=%v err=%v\n", workerID, idx, itemURL, dur, err)
				}
			}
		}(i)
	}

	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	wg.Wait()
	totalDuration := time.Since(testStart)

	if csvWriter != nil {
		csvWriter.Flush()
		csvFile.Close()
	}

	dups := rec.duplicates()
	throughput := float64(success+failure) / totalDuration.Seconds()

	fmt.Println("--- Load Test Summary ---")
	fmt.Printf("Target: %s\n", *url)
	fmt.Printf("Jobs: %d  Concurrency: %d  Delete: %v\n", *requests, *concurrency, *deleteItems)
	fmt.Printf("Success: %d  Failure: %d  Duplicate urls: %d\n", success, failure, len(dups))
	fmt.Printf("Duration: %v  Throughput: %.2f jobs/s\n", totalDuration, throughput)

	fmt.Println("\nStatus codes:")
	var scKeys []int
	for k := range rec.statusCodes {
		scKeys = append(scKeys, k)
	}
	sort.Ints(scKeys)
	for _, k := range scKeys {
		fmt.Printf("  %d -> %d\n", k, rec.statusCodes[k])
	}

	type StepSummary struct {
		Total   int32   `json:"total"`
		Failure int32   `json:"failure"`
		P50     float64 `json:"p50_ms"`
		P90     float64 `json:"p90_ms"`
		P95     float64 `json:"p95_ms"`
		P99     float64 `json:"p99_ms"`
	}
	summaries := map[string]StepSummary{}

	fmt.Println("\nPer-step latencies:")
	var stepKeys []string
	for k := range rec.steps {
		stepKeys = append(stepKeys, k)
	}
	sort.Strings(stepKeys)
	for _, k := range stepKeys {
		s := rec.steps[k]
		lat := sortedCopy(s.Latencies)
		fmt.Printf("  %-12s total=%d failure=%d p50=%v p90=%v p95=%v p99=%v\n",
			k, s.Count, s.Failure, percentile(lat, 0.50), percentile(lat, 0.90), percentile(lat, 0.95), percentile(lat, 0.99))

		ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }
		summaries[k] = StepSummary{
			Total:   s.Count,
			Failure: s.Failure,
			P50:     ms(percentile(lat, 0.50)),
			P90:     ms(percentile(lat, 0.90)),
			P95:     ms(percentile(lat, 0.95)),
			P99:     ms(percentile(lat, 0.99)),
		}
	}

	for _, u := range dups {
		fmt.Printf("DUPLICATE url %s issued %d times\n", u, rec.urls[u])
	}

	fmt.Printf("\nGOMAXPROCS=%d  NumGoroutine=%d\n", runtime.GOMAXPROCS(0), runtime.NumGoroutine())

	if *outJSON != "" {
		report := map[string]interface{}{
			"target":         *url,
			"jobs":           *requests,
			"concurrency":    *concurrency,
			"success":        success,
			"failure":        failure,
			"duplicate_urls": dups,
			"duration_ms":    totalDuration.Milliseconds(),
			"throughput_jps": throughput,
			"steps":          summaries,
		}

		f, err := os.Create(*outJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		enc.Encode(report)
		f.Close()
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if len(dups) > 0 {
		os.Exit(3)
	}
	if failure > 0 {
		os.Exit(2)
	}
}
