package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/triageboard"
	"github.com/jpalmerr/triageboard/internal/mockapi"
)

func main() {
	// simulated backend: 3 rooms with 2 doctors each
	sim := mockapi.New(3, 2)
	backend := &http.Server{
		Addr:              ":8000",
		Handler:           sim.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := backend.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mock backend error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	db, err := triageboard.New(
		triageboard.WithBaseURL("http://localhost:8000"),
		triageboard.WithPollingInterval(2*time.Second),
		triageboard.WithPort(8080),
		triageboard.WithTickCallback(func(r triageboard.TickResult) {
			if r.Err != nil {
				slog.Warn("tick failed", "error", r.Err)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create dashboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   triageboard demo                                    ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Backend: simulated, 3 rooms x 2 doctors on :8000    ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// patients arrive in bursts of 2 every 3 seconds
	go sim.Run(ctx, 3*time.Second, 2)

	if err := db.Start(ctx); err != nil {
		slog.Error("triageboard error", "error", err)
		os.Exit(1)
	}
	_ = backend.Close()
}
