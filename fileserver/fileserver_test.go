package fileserver

import (
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const indexBody = "<html><body>game</body></html>"

func newTestRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":        indexBody,
		"style.css":         "body { margin: 0; }",
		"sprite.png":        "\x89PNG\r\n\x1a\n",
		"save.gamedata":     "<html>not really html</html>",
		"levels/one.txt":    "level one",
		"levels/two.txt":    "level two",
		"nested/index.html": "<p>nested</p>",
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func serve(s http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServeHTTP(t *testing.T) {
	s := New(newTestRoot(t))

	tests := []struct {
		name        string
		method      string
		path        string
		status      int
		contentType string
		body        string
	}{
		{
			name:        "root serves index",
			path:        "/",
			status:      http.StatusOK,
			contentType: mime.TypeByExtension(".html"),
			body:        indexBody,
		},
		{
			name:        "css",
			path:        "/style.css",
			status:      http.StatusOK,
			contentType: mime.TypeByExtension(".css"),
			body:        "body { margin: 0; }",
		},
		{
			name:        "png",
			path:        "/sprite.png",
			status:      http.StatusOK,
			contentType: mime.TypeByExtension(".png"),
		},
		{
			name:        "unknown extension is not sniffed",
			path:        "/save.gamedata",
			status:      http.StatusOK,
			contentType: DefaultContentType,
			body:        "<html>not really html</html>",
		},
		{
			name:        "nested index",
			path:        "/nested/",
			status:      http.StatusOK,
			contentType: mime.TypeByExtension(".html"),
			body:        "<p>nested</p>",
		},
		{
			name:   "directory without slash redirects",
			path:   "/levels",
			status: http.StatusMovedPermanently,
		},
		{
			name:   "missing file",
			path:   "/does-not-exist.txt",
			status: http.StatusNotFound,
		},
		{
			name:   "traversal",
			path:   "/../../etc/passwd",
			status: http.StatusNotFound,
		},
		{
			name:   "encoded traversal",
			path:   "/%2e%2e/%2e%2e/etc/passwd",
			status: http.StatusNotFound,
		},
		{
			name:   "post is rejected",
			method: http.MethodPost,
			path:   "/levels/one.txt",
			status: http.StatusMethodNotAllowed,
		},
		{
			name:   "delete is rejected",
			method: http.MethodDelete,
			path:   "/style.css",
			status: http.StatusMethodNotAllowed,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			method := test.method
			if method == "" {
				method = http.MethodGet
			}
			rec := serve(s, httptest.NewRequest(method, test.path, nil))

			if rec.Code != test.status {
				t.Fatalf("expected status %d, got %d", test.status, rec.Code)
			}
			if test.status == http.StatusMethodNotAllowed {
				if got := rec.Header().Get("Allow"); got != "GET, HEAD" {
					t.Errorf("expected Allow %q, got %q", "GET, HEAD", got)
				}
				if strings.Contains(rec.Body.String(), "level one") {
					t.Error("file body served to a rejected method")
				}
			}
			if test.contentType != "" {
				if got := rec.Header().Get("Content-Type"); got != test.contentType {
					t.Errorf("expected content type %q, got %q", test.contentType, got)
				}
			}
			if test.body != "" && rec.Body.String() != test.body {
				t.Errorf("expected body %q, got %q", test.body, rec.Body.String())
			}
		})
	}
}

func TestDirectoryListing(t *testing.T) {
	s := New(newTestRoot(t))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/levels/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	for _, name := range []string{"one.txt", "two.txt"} {
		if !strings.Contains(rec.Body.String(), name) {
			t.Errorf("expected %s in listing, got %q", name, rec.Body.String())
		}
	}
}

func TestConditionalHeadersIgnored(t *testing.T) {
	s := New(newTestRoot(t))

	req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
	req.Header.Set("If-Modified-Since", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	req.Header.Set("If-None-Match", "*")
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected full body")
	}
}

func TestRange(t *testing.T) {
	s := New(newTestRoot(t))

	req := httptest.NewRequest(http.MethodGet, "/levels/one.txt", nil)
	req.Header.Set("Range", "bytes=0-4")
	rec := serve(s, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("expected status %d, got %d", http.StatusPartialContent, rec.Code)
	}
	if rec.Body.String() != "level" {
		t.Errorf("expected %q, got %q", "level", rec.Body.String())
	}
}

func TestHead(t *testing.T) {
	s := New(newTestRoot(t))
	rec := serve(s, httptest.NewRequest(http.MethodHead, "/style.css", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := newTestRoot(t)
	locked := filepath.Join(dir, "locked.txt")
	if err := os.WriteFile(locked, []byte("secret"), 0o000); err != nil {
		t.Fatal(err)
	}

	rec := serve(New(dir), httptest.NewRequest(http.MethodGet, "/locked.txt", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}
