package fetch

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "golang.org/x/time/rate"
)

// Benchmark the fetch.Client under different concurrency and rate settings.
func BenchmarkClient_FetchConcurrencyAndRate(b *testing.B) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><table><tr><th>Desc</th><th>Price</th></tr><tr><td>A</td><td>$1</td></tr></table></body></html>"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	runScenario := func(name string, maxConc int, perSecond float64) {
		b.Run(name, func(b *testing.B) {
			var lim *rate.Limiter
			if perSecond > 0 {
				lim = rate.NewLimiter(rate.Limit(perSecond), maxConc)
			}
			cli := &Client{
				HTTPClient:        ts.Client(),
				UserAgent:         "bench/1",
				MaxAttempts:       1,
				PerRequestTimeout: 2 * time.Second,
				MaxConcurrent:     maxConc,
				Limiter:           lim,
			}
			url := ts.URL + "/page"
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					_, _, err := cli.Get(ctx, url)
					cancel()
					if err != nil {
						b.Fatalf("fetch failed: %v", err)
					}
				}
			})
		})
	}

	runScenario("conc=1,unlimited", 1, 0)
	runScenario("conc=8,unlimited", 8, 0)
	// High rate keeps the benchmark fast while exercising the limiter
	runScenario("conc=8,rate=5000", 8, 5000)
}
