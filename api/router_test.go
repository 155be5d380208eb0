package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/fairscrape/config"
	"github.com/use-agent/fairscrape/extract"
	"github.com/use-agent/fairscrape/models"
)

const (
	testListing = "https://fair.example/en/exhibitors/"
	detailA     = "https://fair.example/exhibitors-products/exhibitor/a"
)

type fakeRenderer struct {
	pages   map[string]string
	renders int
}

func (f *fakeRenderer) RenderListing(_ context.Context, url, _ string) (*models.Page, error) {
	html, ok := f.pages[url]
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeTimeout, "listing timed out", context.DeadlineExceeded)
	}
	return &models.Page{URL: url, HTML: html, Engine: "rod"}, nil
}

func (f *fakeRenderer) Render(_ context.Context, url string) (*models.Page, error) {
	f.renders++
	html, ok := f.pages[url]
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "navigation failed", nil)
	}
	return &models.Page{URL: url, HTML: html, Engine: "rod"}, nil
}

func (f *fakeRenderer) Stats() models.PoolStats {
	return models.PoolStats{MaxPages: 2, ActivePages: 0}
}

func newTestRouter(t *testing.T, keys []string) *gin.Engine {
	t.Helper()
	cfg := config.Defaults()
	cfg.Server.Mode = gin.TestMode
	cfg.Auth.APIKeys = keys
	cfg.RateLimit.RequestsPerSecond = 100
	cfg.RateLimit.Burst = 100
	cfg.Fair.ListingURL = testListing

	r := &fakeRenderer{pages: map[string]string{
		testListing: `<a href="/exhibitors-products/exhibitor/a">A</a>
			<a href="/exhibitors-products/exhibitor/b">B</a>
			<a href="/exhibitors-products/exhibitor/a">A</a>`,
		detailA: `<h1>Acme Verlag</h1><a href="mailto:info@acme.example">Mail</a>`,
	}}
	return NewRouter(r, extract.NewExtractor(7), cfg, time.Now(), "test")
}

func do(router *gin.Engine, method, path, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth_NoAuth(t *testing.T) {
	w := do(newTestRouter(t, []string{"k"}), http.MethodGet, "/api/v1/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" || resp.Version != "test" || resp.PoolStats.MaxPages != 2 {
		t.Errorf("health = %+v", resp)
	}
}

func TestExtract(t *testing.T) {
	router := newTestRouter(t, []string{"k"})

	tests := []struct {
		name       string
		body       string
		key        string
		wantStatus int
		wantCode   string
	}{
		{"ok", `{"url":"` + detailA + `"}`, "k", http.StatusOK, ""},
		{"missing key", `{"url":"` + detailA + `"}`, "", http.StatusUnauthorized, models.ErrCodeUnauthorized},
		{"wrong key", `{"url":"` + detailA + `"}`, "nope", http.StatusUnauthorized, models.ErrCodeUnauthorized},
		{"not a url", `{"url":"exhibitor a"}`, "k", http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"render fails", `{"url":"https://fair.example/exhibitors-products/exhibitor/zz"}`, "k", http.StatusBadGateway, models.ErrCodeNavigation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/v1/extract", tt.body, tt.key)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			var resp models.ExtractResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if tt.wantCode != "" {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
				}
				return
			}
			if !resp.Success || resp.Data == nil {
				t.Fatalf("resp = %+v", resp)
			}
			if resp.Data.Name != "Acme Verlag" || resp.Data.Email != "info@acme.example" || resp.Data.URL != detailA {
				t.Errorf("record = %+v", resp.Data)
			}
			if resp.EngineUsed != "rod" {
				t.Errorf("EngineUsed = %q", resp.EngineUsed)
			}
		})
	}
}

func TestExtract_MaxAgeUsesCache(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.Mode = gin.TestMode
	cfg.Auth.Enabled = false
	cfg.RateLimit.RequestsPerSecond = 0

	r := &fakeRenderer{pages: map[string]string{detailA: `<h1>Acme Verlag</h1>`}}
	router := NewRouter(r, extract.NewExtractor(7), cfg, time.Now(), "test")

	body := `{"url":"` + detailA + `","max_age":60000}`
	steps := []struct {
		name        string
		body        string
		wantCached  bool
		wantRenders int
	}{
		{"first request renders", body, false, 1},
		{"second request is served from cache", body, true, 1},
		{"no max_age always renders", `{"url":"` + detailA + `"}`, false, 2},
	}
	for _, st := range steps {
		w := do(router, http.MethodPost, "/api/v1/extract", st.body, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d (%s)", st.name, w.Code, w.Body.String())
		}
		var resp models.ExtractResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Cached != st.wantCached {
			t.Errorf("%s: Cached = %v, want %v", st.name, resp.Cached, st.wantCached)
		}
		if resp.Data == nil || resp.Data.Name != "Acme Verlag" {
			t.Errorf("%s: record = %+v", st.name, resp.Data)
		}
		if r.renders != st.wantRenders {
			t.Errorf("%s: renders = %d, want %d", st.name, r.renders, st.wantRenders)
		}
	}
}

func TestCollect(t *testing.T) {
	router := newTestRouter(t, nil)

	t.Run("default listing", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/v1/collect", `{}`, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
		}
		var resp models.CollectResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Total != 2 || len(resp.URLs) != 2 || resp.URLs[0] != detailA {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("limit", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/v1/collect", `{"limit":1}`, "")
		var resp models.CollectResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Total != 2 || len(resp.URLs) != 1 {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("listing fails", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/v1/collect", `{"listing_url":"https://other.example/list"}`, "")
		if w.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", w.Code)
		}
		var resp models.CollectResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Error == nil || resp.Error.Code != models.ErrCodeCollection {
			t.Errorf("error = %+v", resp.Error)
		}
	})
}

func TestRateLimit(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.Mode = gin.TestMode
	cfg.Auth.Enabled = false
	cfg.RateLimit.RequestsPerSecond = 0.001
	cfg.RateLimit.Burst = 1

	router := NewRouter(&fakeRenderer{pages: map[string]string{}}, extract.NewExtractor(7), cfg, time.Now(), "test")

	first := do(router, http.MethodPost, "/api/v1/extract", `{}`, "")
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first request should not be limited")
	}
	second := do(router, http.MethodPost, "/api/v1/extract", `{}`, "")
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
}
