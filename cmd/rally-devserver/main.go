package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/config"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/logging"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote/memory"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote/rest"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/shutdown"
	"github.com/go-chi/chi/v5"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, done := shutdown.New()
	defer done()

	cfg := config.DevServer{}
	if err := envconfig.Process("", &cfg); err != nil {
		logging.DefaultLogger().Fatalf("processing the config: %v", err)
	}

	logger := logging.NewLogger(cfg.Debug)
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx, cfg); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, cfg config.DevServer) error {
	logger := logging.FromContext(ctx).Named("main.realMain")

	backend := memory.New()
	if cfg.Seed {
		ev := memory.Seed(backend, time.Now())
		logger.Infof("seeded event %d %q", ev.ID, ev.Name)
	}

	router := rest.NewHandler(backend, logger.Named("rest")).Routes()
	router.Put("/admin/events/{eventID}/status", eventStatus(backend))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

type statusRequest struct {
	Status rally.EventStatus `json:"status"`
}

// eventStatus lets organizers move an event between phases, e.g. into
// voting.
func eventStatus(backend *memory.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid event id", http.StatusBadRequest)
			return
		}

		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		if err := backend.SetEventStatus(id, req.Status); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
