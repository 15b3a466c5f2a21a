package export

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// PreviewServer serves an export directory over HTTP and pushes a reload
// event to connected browsers whenever a file in it changes, so re-running
// an export refreshes the open report.
type PreviewServer struct {
	dir     string
	watcher *fsnotify.Watcher

	mu      sync.RWMutex
	clients map[chan struct{}]struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// debounce rapid file changes
	lastEvent time.Time
	debounce  time.Duration
}

// NewPreviewServer creates a preview server for dir.
func NewPreviewServer(dir string) (*PreviewServer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PreviewServer{
		dir:      dir,
		watcher:  watcher,
		clients:  make(map[chan struct{}]struct{}),
		ctx:      ctx,
		cancel:   cancel,
		debounce: 200 * time.Millisecond,
	}, nil
}

// Serve listens on addr and blocks until the listener fails or Stop is
// called. The chosen address is reported through onReady, which is useful
// with ":0".
func (p *PreviewServer) Serve(addr string, onReady func(addr string)) error {
	if err := p.watcher.Add(p.dir); err != nil {
		return fmt.Errorf("watch %s: %w", p.dir, err)
	}
	go p.watchLoop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	if onReady != nil {
		onReady(ln.Addr().String())
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/__preview__/events", p.sseHandler)
	mux.HandleFunc("/", p.fileHandler)

	srv := &http.Server{Handler: mux}
	go func() {
		<-p.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts down the server and disconnects all clients.
func (p *PreviewServer) Stop() {
	p.cancel()
	p.watcher.Close()

	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.clients {
		close(ch)
	}
	p.clients = make(map[chan struct{}]struct{})
}

// ClientCount returns the number of connected browsers.
func (p *PreviewServer) ClientCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

func (p *PreviewServer) watchLoop() {
	for {
		select {
		case <-p.ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			now := time.Now()
			if now.Sub(p.lastEvent) < p.debounce {
				continue
			}
			p.lastEvent = now
			p.notifyClients()

		case _, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (p *PreviewServer) notifyClients() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for ch := range p.clients {
		select {
		case ch <- struct{}{}:
		default:
			// Client not ready, skip
		}
	}
}

func (p *PreviewServer) sseHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	clientCh := make(chan struct{}, 1)
	p.mu.Lock()
	p.clients[clientCh] = struct{}{}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.clients, clientCh)
		p.mu.Unlock()
	}()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-p.ctx.Done():
			return
		case _, ok := <-clientCh:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: {\"action\":\"reload\"}\n\n")
			flusher.Flush()
		}
	}
}

// fileHandler serves files from the export directory, injecting the reload
// script into HTML responses.
func (p *PreviewServer) fileHandler(w http.ResponseWriter, r *http.Request) {
	name := filepath.Clean(strings.TrimPrefix(r.URL.Path, "/"))
	if name == "." || name == "" {
		name = "index.html"
	}
	path := filepath.Join(p.dir, name)

	if strings.ToLower(filepath.Ext(path)) != ".html" {
		http.ServeFile(w, r, path)
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(injectReloadScript(content))
}

// injectReloadScript places the SSE client before </body>, or appends it
// when the document has no closing tag.
func injectReloadScript(html []byte) []byte {
	script := []byte(reloadScript)
	if idx := strings.LastIndex(string(html), "</body>"); idx >= 0 {
		out := make([]byte, 0, len(html)+len(script))
		out = append(out, html[:idx]...)
		out = append(out, script...)
		out = append(out, html[idx:]...)
		return out
	}
	return append(html, script...)
}

const reloadScript = `<script>
(function() {
  if (typeof(EventSource) === 'undefined') return;
  var delay = 1000;
  function connect() {
    var es = new EventSource('/__preview__/events');
    es.addEventListener('connected', function() { delay = 1000; });
    es.addEventListener('reload', function() { location.reload(); });
    es.onerror = function() {
      es.close();
      setTimeout(connect, delay);
      delay = Math.min(delay * 2, 30000);
    };
  }
  connect();
})();
</script>`
