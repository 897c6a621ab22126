package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"kvibe/internal/config"
	"kvibe/internal/search"
)

func TestCustomSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "key" || q.Get("cx") != "cx" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if q.Get("dateRestrict") != "d1" {
			t.Errorf("dateRestrict = %s, want d1", q.Get("dateRestrict"))
		}
		if q.Get("num") != "5" {
			t.Errorf("num = %s, want 5", q.Get("num"))
		}
		w.Write([]byte(`{"items":[
			{"title":"IVE world tour","link":"https://entnews.example.com/ive","snippet":"Tour dates announced","displayLink":"entnews.example.com",
			 "pagemap":{"cse_image":[{"src":"https://img.example.com/ive.jpg"}]}},
			{"title":"No image","link":"https://entnews.example.com/plain","snippet":"text","displayLink":"",
			 "pagemap":{"cse_thumbnail":[{"src":"http://img.example.com/thumb.jpg"}]}}
		]}`))
	}))
	defer server.Close()

	cs := NewCustomSearch(config.CustomSearchConfig{
		Endpoint: server.URL,
		APIKey:   "key",
		EngineID: "cx",
	}, server.Client(), nil)

	got, err := cs.Search(context.Background(), search.Query{Terms: "k-pop", Limit: 5, FreshOnly: true})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ImageURL != "https://img.example.com/ive.jpg" {
		t.Fatalf("unexpected image: %q", got[0].ImageURL)
	}
	if got[0].SourceName != "entnews.example.com" {
		t.Fatalf("unexpected source: %q", got[0].SourceName)
	}
	if got[1].ImageURL != "" {
		t.Fatalf("plain-http thumbnail must be dropped, got %q", got[1].ImageURL)
	}
	if got[1].SourceName != "Google Search" {
		t.Fatalf("unexpected fallback source: %q", got[1].SourceName)
	}
}

func TestCustomSearchMissingCredentials(t *testing.T) {
	t.Parallel()

	cs := NewCustomSearch(config.CustomSearchConfig{Endpoint: "http://unused"}, nil, nil)
	if _, err := cs.Search(context.Background(), search.Query{Terms: "x"}); err == nil {
		t.Fatal("expected error when credentials are missing")
	}
}
