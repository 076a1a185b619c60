package http_admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/horockey/go-toolbox/http_helpers"
	"github.com/horockey/orbcomm/internal/controller/http_admin/dto"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/horockey/orbcomm/internal/repository/command_journal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const defaultJournalLimit = 50

// HttpAdmin is the node's local self-reporting surface: health,
// prometheus metrics, and the command journal. It never touches the
// fleet bus.
type HttpAdmin struct {
	serv    *http.Server
	nodeID  string
	journal command_journal.Repository
	started time.Time
	logger  zerolog.Logger
}

func New(
	addr string,
	nodeID string,
	journal command_journal.Repository,
	collectors []prometheus.Collector,
	logger zerolog.Logger,
) *HttpAdmin {
	ctrl := HttpAdmin{
		serv: &http.Server{
			Addr: addr,
		},
		nodeID:  nodeID,
		journal: journal,
		started: time.Now(),
		logger:  logger,
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors...)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", ctrl.getHealthzHandler).Methods(http.MethodGet)
	router.HandleFunc("/journal", ctrl.getJournalHandler).Methods(http.MethodGet)
	router.Handle(
		"/metrics",
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	).Methods(http.MethodGet)

	ctrl.serv.Handler = router

	return &ctrl
}

// Handler exposes the routed handler for serving over an existing
// listener (tests, embedding).
func (ctrl *HttpAdmin) Handler() http.Handler {
	return ctrl.serv.Handler
}

func (ctrl *HttpAdmin) Start(ctx context.Context) (resErr error) {
	var wg sync.WaitGroup
	defer wg.Wait()

	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ctrl.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
			resErr = errors.Join(resErr, fmt.Errorf("running context: %w", ctx.Err()))
		}

		sdCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := ctrl.serv.Shutdown(sdCtx); err != nil {
			resErr = errors.Join(resErr, fmt.Errorf("shutting down server: %w", err))
		}
		return resErr

	case err := <-errCh:
		return fmt.Errorf("running server: %w", err)
	}
}

func (ctrl *HttpAdmin) getHealthzHandler(w http.ResponseWriter, _ *http.Request) {
	_ = http_helpers.RespondOK(w, dto.Health{
		Status:    "ok",
		NodeID:    ctrl.nodeID,
		UptimeSec: int64(time.Since(ctrl.started).Seconds()),
	})
}

func (ctrl *HttpAdmin) getJournalHandler(w http.ResponseWriter, req *http.Request) {
	limit := defaultJournalLimit
	if nStr := req.URL.Query().Get("n"); nStr != "" {
		n, err := strconv.Atoi(nStr)
		if err != nil || n < 0 {
			_ = http_helpers.RespondWithErr(w, http.StatusBadRequest, errors.New("n must be a non-negative integer"))
			return
		}
		limit = n
	}

	entries, err := ctrl.journal.Recent(limit)
	if err != nil {
		ctrl.logger.
			Error().
			Err(fmt.Errorf("getting journal entries: %w", err)).
			Send()
		_ = http_helpers.RespondWithErr(w, http.StatusInternalServerError, nil)
		return
	}

	_ = http_helpers.RespondOK(w, lo.Map(
		entries,
		func(el model.JournalEntry, _ int) dto.JournalEntry { return dto.NewJournalEntry(el) },
	))
}
