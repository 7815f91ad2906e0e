package storage

import (
	"context"
	"database/sql"

	"github.com/gbrfl/league/go/internal/keeper"
	"github.com/gbrfl/league/go/internal/ledger"
	"github.com/gbrfl/league/go/internal/outbox"
	"github.com/gbrfl/league/go/internal/roster"
	"github.com/gbrfl/league/go/internal/sqlutil"
	"github.com/gbrfl/league/go/internal/trade"
	"github.com/gbrfl/league/go/internal/waiver"
)

// Repos holds every repository bound to the connection pool, plus the pool
// itself for opening transactions.
type Repos struct {
	DB     *sql.DB
	Claims *waiver.Repository
	Trades *trade.Repository
	Roster *roster.Repository
	Keeper *keeper.Repository
	Ledger *ledger.Repository
	Outbox *outbox.Repository
}

// NewRepos wires all repositories against one pool.
func NewRepos(db *sql.DB) *Repos {
	return &Repos{
		DB:     db,
		Claims: waiver.NewRepository(db),
		Trades: trade.NewRepository(db),
		Roster: roster.NewRepository(db),
		Keeper: keeper.NewRepository(db),
		Ledger: ledger.NewRepository(db),
		Outbox: outbox.NewRepository(db),
	}
}

// WaiverStores returns pool-bound stores for reads and single-row writes.
func (r *Repos) WaiverStores() waiver.Stores {
	return waiver.Stores{
		Claims: r.Claims,
		Roster: r.Roster,
		Ledger: r.Ledger,
		Outbox: r.Outbox,
	}
}

// TradeStores returns pool-bound stores for reads and single-row writes.
func (r *Repos) TradeStores() trade.Stores {
	return trade.Stores{
		Trades: r.Trades,
		Roster: r.Roster,
		Keeper: r.Keeper,
		Ledger: r.Ledger,
		Outbox: r.Outbox,
	}
}

// WaiverTxRunner opens one database transaction per waiver operation and
// rebinds every store to it, so a multi-step approval commits or rolls back
// as a unit.
type WaiverTxRunner struct {
	repos *Repos
}

func NewWaiverTxRunner(repos *Repos) *WaiverTxRunner {
	return &WaiverTxRunner{repos: repos}
}

func (t *WaiverTxRunner) InTx(ctx context.Context, fn func(s waiver.Stores) error) error {
	return sqlutil.Run(ctx, t.repos.DB, func(tx *sql.Tx) error {
		return fn(waiver.Stores{
			Claims: t.repos.Claims.WithTx(tx),
			Roster: t.repos.Roster.WithTx(tx),
			Ledger: t.repos.Ledger.WithTx(tx),
			Outbox: t.repos.Outbox.WithTx(tx),
		})
	})
}

// TradeTxRunner is the trade-side counterpart of WaiverTxRunner.
type TradeTxRunner struct {
	repos *Repos
}

func NewTradeTxRunner(repos *Repos) *TradeTxRunner {
	return &TradeTxRunner{repos: repos}
}

func (t *TradeTxRunner) InTx(ctx context.Context, fn func(s trade.Stores) error) error {
	return sqlutil.Run(ctx, t.repos.DB, func(tx *sql.Tx) error {
		return fn(trade.Stores{
			Trades: t.repos.Trades.WithTx(tx),
			Roster: t.repos.Roster.WithTx(tx),
			Keeper: t.repos.Keeper.WithTx(tx),
			Ledger: t.repos.Ledger.WithTx(tx),
			Outbox: t.repos.Outbox.WithTx(tx),
		})
	})
}
