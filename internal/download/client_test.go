package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"cetpredict/internal/config"
)

func testConfig() config.Config {
	return config.Config{DownloadRateLimitRPS: 1000, DownloadTimeoutMs: 2000}
}

func TestDownloadAll(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("code,branch,GM\nE001,AI,100\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	client := NewClient(testConfig())
	paths, err := client.DownloadAll(context.Background(), []string{srv.URL + "/ENGG_CUTOFF_2024_r1.csv"}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || hits != 1 {
		t.Fatalf("paths=%v hits=%d", paths, hits)
	}
	if filepath.Base(paths[0]) != "ENGG_CUTOFF_2024_r1.csv" {
		t.Fatalf("name=%s", paths[0])
	}
	body, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(body) == 0 {
		t.Fatal("empty download")
	}
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(testConfig())
	paths, err := client.DownloadAll(context.Background(), []string{srv.URL + "/cutoff.pdf"}, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if hits != 3 || len(paths) != 1 {
		t.Fatalf("hits=%d paths=%v", hits, paths)
	}
}

func TestDownloadGivesUpAfterThreeAttempts(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(testConfig())
	if _, err := client.DownloadAll(context.Background(), []string{srv.URL + "/cutoff.pdf"}, t.TempDir()); err == nil {
		t.Fatal("expected error")
	}
	if hits != 3 {
		t.Fatalf("hits=%d", hits)
	}
}

func TestDownloadRejectsPathlessURL(t *testing.T) {
	client := NewClient(testConfig())
	if _, err := client.DownloadAll(context.Background(), []string{"http://example.com/"}, t.TempDir()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRateLimiterHonorsCancellation(t *testing.T) {
	limiter := NewRateLimiter(1)
	if err := limiter.WaitTurn(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.WaitTurn(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}
}
