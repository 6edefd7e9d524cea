package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jpalmerr/triageboard/internal/store"
	"github.com/jpalmerr/triageboard/render"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func putChart(t *testing.T, st store.Store, mount string, c render.Chart) {
	t.Helper()
	payload, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	st.Put(store.View{Mount: mount, Kind: string(c.Type), Payload: payload})
}

func queueChart(verde, amarelo, vermelho int) render.Chart {
	return render.Chart{
		Type:       render.Column,
		Title:      "Filas de Espera",
		Categories: []string{"Verde", "Amarelo", "Vermelho"},
		Series:     []render.Series{{Name: "Pacientes", Data: render.Counts(verde, amarelo, vermelho)}},
	}
}

// parseSSEEvents extracts views from an SSE response body.
func parseSSEEvents(body string) []store.View {
	var views []store.View
	for _, line := range strings.Split(body, "\n") {
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var v store.View
		if err := json.Unmarshal([]byte(data), &v); err == nil {
			views = append(views, v)
		}
	}
	return views
}

// --- SSE ---

func TestHandleSSE_InitialSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	putChart(t, st, "filas-chart", queueChart(1, 2, 3))
	st.Put(store.View{Mount: "tabela-medicos", Kind: "table", Payload: json.RawMessage(`{"columns":["ID"],"rows":[]}`)})

	srv := NewServer(st, 0, nil, "", testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	views := parseSSEEvents(rec.Body.String())
	if len(views) != 2 {
		t.Fatalf("got %d events, want 2: %s", len(views), rec.Body.String())
	}
	if views[0].Mount != "filas-chart" || views[1].Mount != "tabela-medicos" {
		t.Errorf("event mounts = %q, %q", views[0].Mount, views[1].Mount)
	}
}

func TestHandleSSE_StreamsUpdates(t *testing.T) {
	st := store.NewMemoryStore()
	srv := NewServer(st, 0, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)
	putChart(t, st, "taxa-chart", render.NewPie("Taxa de Conclusão", "Pacientes", render.Slice{Name: "Atendidos", Value: 1}))
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	views := parseSSEEvents(rec.Body.String())
	if len(views) != 1 || views[0].Mount != "taxa-chart" {
		t.Errorf("streamed views = %+v, want one taxa-chart view", views)
	}
}

func TestHandleSSE_Headers(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, nil, "", testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
}

// nonFlushWriter is a ResponseWriter without http.Flusher.
type nonFlushWriter struct {
	header http.Header
	code   int
}

func (n *nonFlushWriter) Header() http.Header {
	if n.header == nil {
		n.header = http.Header{}
	}
	return n.header
}

func (n *nonFlushWriter) Write(b []byte) (int, error) { return len(b), nil }

func (n *nonFlushWriter) WriteHeader(statusCode int) { n.code = statusCode }

func TestHandleSSE_SSENotSupported(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, nil, "", testLogger())

	w := &nonFlushWriter{}
	srv.handleSSE(w, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	if w.code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.code, http.StatusInternalServerError)
	}
}

func TestHandleSSE_ConcurrentClientsShutdown(t *testing.T) {
	st := store.NewMemoryStore()
	putChart(t, st, "filas-chart", queueChart(0, 0, 0))
	srv := NewServer(st, 0, nil, "", testLogger())

	serverCtx, serverCancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(serverCtx)
			srv.handleSSE(httptest.NewRecorder(), req)
		}()
	}

	time.Sleep(100 * time.Millisecond)
	serverCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all handlers exited after shutdown")
	}
}

// --- REST ---

func TestHandleViews(t *testing.T) {
	st := store.NewMemoryStore()
	putChart(t, st, "filas-chart", queueChart(5, 2, 0))
	srv := NewServer(st, 0, nil, "", testLogger())

	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/views", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var views []store.View
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("response is not a view list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d views, want 1", len(views))
	}

	var c render.Chart
	if err := json.Unmarshal(views[0].Payload, &c); err != nil {
		t.Fatalf("payload is not a chart: %v", err)
	}
	got := c.Series[0].Values()
	if len(got) != 3 || got[0] != 5 || got[1] != 2 || got[2] != 0 {
		t.Errorf("series data = %v, want [5 2 0]", got)
	}
}

func TestHandleViews_MethodNotAllowed(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, nil, "", testLogger())

	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/views", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleHealth(t *testing.T) {
	st := store.NewMemoryStore()
	st.RecordTick(time.Now(), nil)
	st.RecordTick(time.Now(), fmt.Errorf("tick failed: feed stats: boom"))
	st.RecordSkip()
	srv := NewServer(st, 0, nil, "", testLogger())

	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var h store.Health
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatalf("response is not health JSON: %v", err)
	}
	if h.Ticks != 2 || h.Failures != 1 || h.Skipped != 1 {
		t.Errorf("health = %+v, want 2 ticks, 1 failure, 1 skip", h)
	}
	if h.LastError == nil || !strings.Contains(*h.LastError, "boom") {
		t.Errorf("LastError = %v", h.LastError)
	}
}

// --- charts ---

func TestHandleChartSVG(t *testing.T) {
	st := store.NewMemoryStore()
	putChart(t, st, "filas-chart", queueChart(5, 2, 1))
	putChart(t, st, "taxa-chart", render.NewPie("Taxa", "Pacientes", render.Slice{Name: "Atendidos"}))
	st.Put(store.View{Mount: "tabela-medicos", Kind: "table", Payload: json.RawMessage(`{}`)})
	srv := NewServer(st, 0, nil, "", testLogger())

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "column chart", path: "/charts/filas-chart.svg", wantStatus: http.StatusOK},
		{name: "empty pie", path: "/charts/taxa-chart.svg", wantStatus: http.StatusNoContent},
		{name: "table is not a chart", path: "/charts/tabela-medicos.svg", wantStatus: http.StatusNotFound},
		{name: "unknown mount", path: "/charts/nope.svg", wantStatus: http.StatusNotFound},
		{name: "missing extension", path: "/charts/filas-chart", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if got := rec.Header().Get("Content-Type"); got != "image/svg+xml" {
					t.Errorf("Content-Type = %q, want image/svg+xml", got)
				}
				if !strings.Contains(rec.Body.String(), "<svg") {
					t.Error("body is not an svg document")
				}
			}
		})
	}
}

// --- dashboard page ---

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"assets/index.html": &fstest.MapFile{Data: []byte("<title>{{.Title}}</title><div id=\"filas-chart\"></div>")},
	}
}

func TestHandleDashboard_CustomTitle(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, testAssets(), "Urgências Norte", testLogger())

	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Body.String(), "<title>Urgências Norte</title>") {
		t.Errorf("body = %s, want custom title", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestHandleDashboard_DefaultTitle(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, testAssets(), "", testLogger())

	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Body.String(), "<title>"+defaultTitle+"</title>") {
		t.Errorf("body = %s, want default title", rec.Body.String())
	}
}

func TestHandleDashboard_TitleIsEscaped(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, testAssets(), "<script>alert(1)</script>", testLogger())

	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Contains(rec.Body.String(), "<script>") {
		t.Error("title was not HTML escaped")
	}
}

func TestHandleDashboard_NonRootPath(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, testAssets(), "", testLogger())

	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDashboard_MissingAsset(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, fstest.MapFS{}, "", testLogger())

	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// --- websocket ---

func readView(t *testing.T, conn *websocket.Conn) store.View {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var v store.View
	if err := conn.ReadJSON(&v); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return v
}

func TestHandleWS_SnapshotAndUpdates(t *testing.T) {
	st := store.NewMemoryStore()
	putChart(t, st, "filas-chart", queueChart(1, 1, 1))
	srv := NewServer(st, 0, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.hub.run(ctx)

	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer func() { _ = conn.Close() }()

	if v := readView(t, conn); v.Mount != "filas-chart" {
		t.Errorf("snapshot mount = %q, want filas-chart", v.Mount)
	}

	putChart(t, st, "medicos-chart", render.Chart{Type: render.Bar, Title: "Médicos (total 2)"})

	if v := readView(t, conn); v.Mount != "medicos-chart" || v.Kind != "bar" {
		t.Errorf("update = %+v, want medicos-chart bar view", v)
	}
}

func TestHandleWS_HubShutdownClosesClients(t *testing.T) {
	st := store.NewMemoryStore()
	srv := NewServer(st, 0, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go srv.hub.run(ctx)

	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer func() { _ = conn.Close() }()

	// let the hub register the client before shutting down
	time.Sleep(50 * time.Millisecond)
	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("ReadMessage() after hub shutdown should fail with a close")
	}
}

// --- lifecycle ---

func TestStart_FreePort(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), 0, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	addr := srv.Addr()
	if addr == nil {
		t.Fatal("Addr() = nil after Start()")
	}

	resp, err := http.Get("http://" + addr.String() + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := NewServer(store.NewMemoryStore(), port, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() expected error for port in use")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("error = %v, want bind failure", err)
	}
}
