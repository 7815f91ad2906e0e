package main

import (
	"context"
	"database/sql"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/gbrfl/league/go/internal/feed"
	"github.com/gbrfl/league/go/internal/ledger"
	"github.com/gbrfl/league/go/internal/lineup"
	"github.com/gbrfl/league/go/internal/notify"
	"github.com/gbrfl/league/go/internal/outbox"
	"github.com/gbrfl/league/go/internal/player"
	"github.com/gbrfl/league/go/internal/roster"
	"github.com/gbrfl/league/go/internal/sideeffect"
	"github.com/gbrfl/league/go/internal/standings"
	"github.com/gbrfl/league/go/internal/storage"
	"github.com/gbrfl/league/go/internal/team"
	"github.com/gbrfl/league/go/internal/trade"
	"github.com/gbrfl/league/go/internal/waiver"
)

type Services struct {
	Waivers *waiver.App
	Trades  *trade.App
	Rosters *roster.App
	Ledger  *ledger.App
	Players *player.App
	Teams   *team.App
	Feed    *feed.ConnectionManager

	OutboxWorker *outbox.Worker
	FeedConsumer *feed.EventConsumer
}

func setupServices(ctx context.Context, database *sql.DB, config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → HTTP layer
	repos := storage.NewRepos(database)
	clock := clockwork.NewRealClock()
	fx := sideeffect.NewDispatcher(config.Engine.SideEffectTimeout)

	playerRepo := player.NewRepository(database)
	playerApp := player.NewApp(playerRepo)

	teamApp := team.NewApp(team.NewRepository(database))

	reconciler := lineup.NewReconciler(lineup.NewRepository(database))
	standingsRepo := standings.NewRepository(database)

	notifier, publisher, err := setupBus(ctx, config)
	if err != nil {
		return nil, err
	}

	waiverApp := waiver.NewApp(
		repos.WaiverStores(),
		storage.NewWaiverTxRunner(repos),
		standingsRepo,
		playerApp,
		reconciler,
		notifier,
		fx,
		clock,
	)

	tradeApp := trade.NewApp(
		repos.TradeStores(),
		storage.NewTradeTxRunner(repos),
		playerApp,
		reconciler,
		notifier,
		fx,
		clock,
	)

	rosterApp := roster.NewApp(repos.Roster)
	ledgerApp := ledger.NewApp(repos.Ledger)

	feedManager := feed.NewConnectionManager(feed.DefaultConnectionConfig())
	services := &Services{
		Waivers: waiverApp,
		Trades:  tradeApp,
		Rosters: rosterApp,
		Ledger:  ledgerApp,
		Players: playerApp,
		Teams:   teamApp,
		Feed:    feedManager,
	}

	services.OutboxWorker = outbox.NewWorker(database, publisher, outbox.Config{
		PollInterval: config.Outbox.PollInterval,
		BatchSize:    config.Outbox.BatchSize,
	})

	if config.Bus.Enabled {
		consumerConfig := feed.DefaultJetStreamConsumerConfig()
		consumerConfig.URL = getEnv("NATS_URL", nats.DefaultURL)
		consumerConfig.StreamName = config.Bus.Stream
		consumerConfig.SubjectFilter = config.Bus.SubjectPrefix + ".>"
		consumer, err := feed.NewEventConsumer(feedManager, consumerConfig)
		if err != nil {
			return nil, err
		}
		services.FeedConsumer = consumer
	}

	return services, nil
}

// setupBus wires the notifier and outbox publisher against NATS, or logs
// both locally when no broker is configured.
func setupBus(ctx context.Context, config *Config) (waiver.Notifier, outbox.EventPublisher, error) {
	if !config.Bus.Enabled {
		log.Info().Msg("bus disabled, using log notifier and publisher")
		return notify.LogNotifier{}, outbox.LogPublisher{}, nil
	}

	url := getEnv("NATS_URL", nats.DefaultURL)
	publisher, err := outbox.NewNATSPublisher(ctx, url, config.Bus.Stream, config.Bus.SubjectPrefix)
	if err != nil {
		return nil, nil, err
	}

	nc, err := nats.Connect(url, nats.MaxReconnects(-1))
	if err != nil {
		return nil, nil, err
	}
	return notify.NewNATSNotifier(nc), publisher, nil
}
