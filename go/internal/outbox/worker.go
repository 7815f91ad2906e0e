package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gbrfl/league/go/internal/sqlutil"
)

type Config struct {
	PollInterval time.Duration
	BatchSize    int
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
	}
}

// Worker polls the outbox table and publishes unsent events to the bus.
type Worker struct {
	db        *sql.DB
	repo      *Repository
	publisher EventPublisher
	config    Config

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWorker(db *sql.DB, publisher EventPublisher, cfg Config) *Worker {
	return &Worker{
		db:        db,
		repo:      NewRepository(db),
		publisher: publisher,
		config:    cfg,
		stopChan:  make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	log.Info().
		Dur("poll_interval", w.config.PollInterval).
		Int("batch_size", w.config.BatchSize).
		Msg("outbox worker started")

	return nil
}

func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker not running")
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	log.Info().Msg("outbox worker stopped")
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on start
	w.processOutbox(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	err := sqlutil.Run(ctx, w.db, func(tx *sql.Tx) error {
		repo := w.repo.WithTx(tx)

		pending, err := repo.FetchUnsent(ctx, w.config.BatchSize)
		if err != nil {
			return err
		}

		for _, event := range pending {
			if err := w.publisher.Publish(ctx, event); err != nil {
				// Leave the row unsent; the next poll retries it.
				log.Error().Err(err).
					Str("event_id", event.ID.String()).
					Str("event_type", event.EventType).
					Msg("failed to publish outbox event")
				continue
			}
			if err := repo.MarkSent(ctx, event.ID, time.Now().UTC()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("outbox poll failed")
	}
}
