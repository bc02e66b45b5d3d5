package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDeepLClient(t *testing.T) {
	var gotAuth, gotTarget string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/translate" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotTarget = r.FormValue("target_lang")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[{"detected_source_language":"FR","text":"hello"}]}`))
	}))
	defer srv.Close()

	c := NewDeepLClient(srv.URL, "test-key")

	t.Run("translate", func(t *testing.T) {
		out, err := c.Translate(context.Background(), "bonjour", "en")
		if err != nil {
			t.Fatal(err)
		}
		if out != "hello" {
			t.Fatalf("expected hello, got %q", out)
		}
		if gotAuth != "DeepL-Auth-Key test-key" {
			t.Fatalf("unexpected auth header %q", gotAuth)
		}
		if gotTarget != "EN" {
			t.Fatalf("target_lang should be upper-cased, got %q", gotTarget)
		}
	})

	t.Run("detect", func(t *testing.T) {
		lang, err := c.Detect(context.Background(), "bonjour")
		if err != nil {
			t.Fatal(err)
		}
		if lang != "FR" {
			t.Fatalf("expected FR, got %q", lang)
		}
	})
}

func TestDeepLClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewDeepLClient(srv.URL, "test-key")
	if _, err := c.Translate(context.Background(), "bonjour", "EN"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
