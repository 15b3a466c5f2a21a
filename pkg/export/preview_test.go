package export

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInjectReloadScript(t *testing.T) {
	withBody := []byte("<html><body><p>hi</p></body></html>")
	out := string(injectReloadScript(withBody))
	if !strings.Contains(out, "EventSource") {
		t.Error("script not injected")
	}
	if !strings.Contains(out, "</script></body>") {
		t.Error("script should sit immediately before </body>")
	}

	noBody := []byte("<p>fragment</p>")
	out = string(injectReloadScript(noBody))
	if !strings.HasSuffix(out, "</script>") {
		t.Error("script should be appended when </body> is absent")
	}
}

func TestFileHandlerInjectsIntoHTML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte("<html><body>report</body></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tree.svg"),
		[]byte("<svg></svg>"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := NewPreviewServer(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	// The root path serves index.html with the reload script.
	rec := httptest.NewRecorder()
	p.fileHandler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "EventSource") {
		t.Error("html response missing reload script")
	}

	// Non-HTML assets pass through untouched.
	rec = httptest.NewRecorder()
	p.fileHandler(rec, httptest.NewRequest(http.MethodGet, "/tree.svg", nil))
	if strings.Contains(rec.Body.String(), "EventSource") {
		t.Error("svg response must not be modified")
	}

	rec = httptest.NewRecorder()
	p.fileHandler(rec, httptest.NewRequest(http.MethodGet, "/missing.html", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", rec.Code)
	}
}

func TestPreviewServerClientLifecycle(t *testing.T) {
	p, err := NewPreviewServer(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if p.ClientCount() != 0 {
		t.Error("fresh server should have no clients")
	}
	p.Stop()
	if p.ClientCount() != 0 {
		t.Error("stopped server should have no clients")
	}
}
