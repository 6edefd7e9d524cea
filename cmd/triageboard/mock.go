package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/triageboard/internal/mockapi"
)

// mockCmd runs the simulated triage backend.
var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a simulated triage backend",
	Long: `Run an in-memory emergency department simulation that serves the
three feeds the dashboard polls:

  GET  /api/filas/     waiting patients per triage level
  GET  /api/stats/     completion counts
  GET  /api/medicos/   doctors roster with aggregate counts
  POST /api/pacientes/ admit {"urgencia": "vermelho", "surto": 5}

Patients of random levels arrive in bursts every --every.

Example:
  triageboard mock --addr :8000 --rooms 3 --doctors 2`,
	RunE: runMock,
}

func init() {
	rootCmd.AddCommand(mockCmd)

	mockCmd.Flags().String("addr", ":8000", "listen address")
	mockCmd.Flags().Int("rooms", 3, "number of rooms")
	mockCmd.Flags().Int("doctors", 2, "doctors per room")
	mockCmd.Flags().Duration("every", 3*time.Second, "time between arrival bursts")
	mockCmd.Flags().Int("burst", 2, "patients per arrival burst")
}

func runMock(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	addr, _ := cmd.Flags().GetString("addr")
	rooms, _ := cmd.Flags().GetInt("rooms")
	doctors, _ := cmd.Flags().GetInt("doctors")
	every, _ := cmd.Flags().GetDuration("every")
	burst, _ := cmd.Flags().GetInt("burst")

	if every <= 0 {
		return errors.New("--every must be positive")
	}

	sim := mockapi.New(rooms, doctors, mockapi.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sim.Run(ctx, every, burst)

	srv := &http.Server{
		Addr:              addr,
		Handler:           sim.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("mock backend listening", "addr", addr, "rooms", rooms, "doctors_per_room", doctors)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mock backend error: %w", err)
	}
	logger.Info("mock backend stopped")
	return nil
}
