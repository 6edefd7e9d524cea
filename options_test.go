package triageboard

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/triageboard/render"
)

func TestNew_Valid(t *testing.T) {
	db, err := New(WithBaseURL("http://er.local:8000"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if db == nil {
		t.Fatal("New() returned nil Dashboard")
	}
}

func TestNew_NoBaseURL(t *testing.T) {
	_, err := New()
	if err == nil {
		t.Fatal("New() expected error without base URL, got nil")
	}
	if !strings.Contains(err.Error(), "base URL is required") {
		t.Errorf("New() error = %v, want base URL required", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	db, err := New(WithBaseURL("http://er.local"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if db.PollingInterval() != 2*time.Second {
		t.Errorf("PollingInterval() = %v, want 2s", db.PollingInterval())
	}
	if db.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", db.Port())
	}
	if db.requestTimeout != 5*time.Second {
		t.Errorf("requestTimeout = %v, want 5s", db.requestTimeout)
	}
	if db.reportedSummary {
		t.Error("reportedSummary = true, want derived by default")
	}
	if db.title != "Urgências" {
		t.Errorf("title = %q, want Urgências", db.title)
	}
}

func TestWithBaseURL_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"empty", "", "base URL is required"},
		{"no scheme", "er.local/api", "http or https"},
		{"ftp", "ftp://er.local", "http or https"},
		{"no host", "http://", "must include a host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithBaseURL(tt.url))
			if err == nil {
				t.Fatal("New() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFeedURL_Resolution(t *testing.T) {
	tests := []struct {
		name string
		base string
		opts []Option
		feed Feed
		want string
	}{
		{name: "default queues", base: "http://er.local:8000", feed: FeedQueues, want: "http://er.local:8000/api/filas/"},
		{name: "default stats", base: "http://er.local:8000/", feed: FeedStats, want: "http://er.local:8000/api/stats/"},
		{name: "default doctors", base: "https://er.local", feed: FeedDoctors, want: "https://er.local/api/medicos/"},
		{
			name: "absolute override",
			base: "http://er.local/base/",
			opts: []Option{WithFeedPath(FeedDoctors, "/v2/medicos/")},
			feed: FeedDoctors,
			want: "http://er.local/v2/medicos/",
		},
		{
			name: "relative override",
			base: "http://er.local/base/",
			opts: []Option{WithFeedPath(FeedStats, "stats.json")},
			feed: FeedStats,
			want: "http://er.local/base/stats.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(append([]Option{WithBaseURL(tt.base)}, tt.opts...)...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := db.FeedURL(tt.feed); got != tt.want {
				t.Errorf("FeedURL(%s) = %q, want %q", tt.feed, got, tt.want)
			}
		})
	}
}

func TestWithFeedPath_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		feed    Feed
		path    string
		wantErr string
	}{
		{"unknown feed", Feed("camas"), "/api/camas/", "unknown feed"},
		{"empty path", FeedQueues, "", "cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithBaseURL("http://er.local"), WithFeedPath(tt.feed, tt.path))
			if err == nil {
				t.Fatal("New() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWithPollingInterval(t *testing.T) {
	db, err := New(WithBaseURL("http://er.local"), WithPollingInterval(500*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if db.PollingInterval() != 500*time.Millisecond {
		t.Errorf("PollingInterval() = %v, want 500ms", db.PollingInterval())
	}
}

func TestDurationOptions_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr string
	}{
		{"zero interval", WithPollingInterval(0), "polling interval must be positive"},
		{"negative interval", WithPollingInterval(-time.Second), "polling interval must be positive"},
		{"zero timeout", WithRequestTimeout(0), "request timeout must be positive"},
		{"negative timeout", WithRequestTimeout(-time.Second), "request timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithBaseURL("http://er.local"), tt.opt)
			if err == nil {
				t.Fatal("New() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWithPort(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"minimum", 1, false},
		{"typical", 9090, false},
		{"maximum", 65535, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"too large", 65536, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(WithBaseURL("http://er.local"), WithPort(tt.port))
			if tt.wantErr {
				if err == nil {
					t.Fatal("New() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if db.Port() != tt.port {
				t.Errorf("Port() = %d, want %d", db.Port(), tt.port)
			}
		})
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	db, err := New(WithBaseURL("http://er.local"), WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if db.logger != logger {
		t.Error("logger was not applied")
	}
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := New(WithBaseURL("http://er.local"), WithLogger(nil))
	if err == nil {
		t.Fatal("New() expected error for nil logger, got nil")
	}
	if !strings.Contains(err.Error(), "logger cannot be nil") {
		t.Errorf("New() error = %v, want error containing 'logger cannot be nil'", err)
	}
}

func TestWithLogger_DefaultsToSlogDefault(t *testing.T) {
	db, err := New(WithBaseURL("http://er.local"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if db.logger != slog.Default() {
		t.Error("logger should default to slog.Default()")
	}
}

func TestWithRenderer_Nil(t *testing.T) {
	_, err := New(WithBaseURL("http://er.local"), WithRenderer(nil))
	if err == nil {
		t.Fatal("New() expected error for nil renderer, got nil")
	}
}

func TestWithRenderer_Multiple(t *testing.T) {
	backend := newFakeBackend(t)
	first, second := &render.Recorder{}, &render.Recorder{}

	db, err := New(
		WithBaseURL(backend.URL),
		WithLogger(testLogger()),
		WithRenderer(first),
		WithRenderer(second),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	if first.Calls() != 4 || second.Calls() != 4 {
		t.Errorf("calls = %d and %d, want 4 each", first.Calls(), second.Calls())
	}
}

func TestWithTitle(t *testing.T) {
	db, err := New(WithBaseURL("http://er.local"), WithTitle("Urgências Norte"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if db.title != "Urgências Norte" {
		t.Errorf("title = %q, want %q", db.title, "Urgências Norte")
	}
}
