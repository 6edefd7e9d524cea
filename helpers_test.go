package triageboard

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend serves the three feeds with replaceable bodies and statuses.
type fakeBackend struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[Feed]string
	status map[Feed]int
	hits   atomic.Int64
}

const (
	queuesBody  = `{"verde":5,"amarelo":2,"vermelho":0}`
	statsBody   = `{"atendidos":6,"desistencias":2,"esperando":2,"total":10}`
	doctorsBody = `{"medicos":[{"id":1,"sala":"A","ocupado":false},{"id":2,"sala":null,"ocupado":true}]}`
)

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		bodies: map[Feed]string{
			FeedQueues:  queuesBody,
			FeedStats:   statsBody,
			FeedDoctors: doctorsBody,
		},
		status: make(map[Feed]int),
	}

	mux := http.NewServeMux()
	for _, f := range Feeds {
		mux.HandleFunc("GET "+DefaultPath(f), func(w http.ResponseWriter, r *http.Request) {
			b.hits.Add(1)
			b.mu.Lock()
			body, code := b.bodies[f], b.status[f]
			b.mu.Unlock()
			if code == 0 {
				code = http.StatusOK
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			_, _ = io.WriteString(w, body)
		})
	}
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *fakeBackend) set(f Feed, code int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status[f] = code
	b.bodies[f] = body
}

// freePort returns a port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port
}
