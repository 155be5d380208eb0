package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPEngine_Fetch(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		switch r.URL.Path {
		case "/exhibitor/acme":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><title> Acme </title></head><body><h1>Acme</h1></body></html>`))
		case "/shell":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><div id="app"></div></body></html>`))
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	eng := NewHTTPEngine(5*time.Second, "fairscrape-test", "de-DE")
	ctx := context.Background()

	t.Run("static page", func(t *testing.T) {
		res, err := eng.Fetch(ctx, &FetchRequest{URL: srv.URL + "/exhibitor/acme", ReadySelector: "h1"})
		if err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
		if res.Title != "Acme" {
			t.Errorf("Title = %q, want Acme", res.Title)
		}
		if res.EngineName != "http" || res.StatusCode != http.StatusOK {
			t.Errorf("EngineName=%q StatusCode=%d", res.EngineName, res.StatusCode)
		}
		if res.Text != "" {
			t.Errorf("Text = %q, want empty for a non-rendering engine", res.Text)
		}
		if gotUA != "fairscrape-test" || gotLang != "de-DE" {
			t.Errorf("headers UA=%q lang=%q", gotUA, gotLang)
		}
	})

	failures := []struct {
		name string
		path string
		want string
	}{
		{"script shell without ready element", "/shell", "not present"},
		{"non-html", "/json", "non-html"},
		{"not found", "/missing", "404"},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Fetch(ctx, &FetchRequest{URL: srv.URL + tt.path, ReadySelector: "h1"})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}
