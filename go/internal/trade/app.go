package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/gbrfl/league/go/internal/events"
	"github.com/gbrfl/league/go/internal/ledger"
	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/roster"
	"github.com/gbrfl/league/go/internal/sideeffect"
)

// The tradable window for future picks: the current season plus three.
const pickSeasonWindow = 3

// MaxPickRound bounds draft and free-agent pick rounds.
const MaxPickRound = 20

// TradeStore defines what the app layer needs from the trade repository.
type TradeStore interface {
	CreateTrade(ctx context.Context, req CreateTradeRequest) (*models.TradeProposal, error)
	GetTrade(ctx context.Context, id uuid.UUID) (*models.TradeProposal, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID, season int, status *models.TradeStatus) ([]models.TradeProposal, error)
	TransitionStatus(ctx context.Context, tradeID uuid.UUID, from, to models.TradeStatus, at time.Time) error
	SetTargetDrops(ctx context.Context, tradeID uuid.UUID, drops []uuid.UUID, at time.Time) error
}

// RosterStore defines what trade execution needs from the roster store.
type RosterStore interface {
	GetEntry(ctx context.Context, teamID, playerID uuid.UUID) (*models.RosterEntry, error)
	CountByTeam(ctx context.Context, teamID uuid.UUID) (int, error)
	LockTeams(ctx context.Context, teamIDs ...uuid.UUID) error
	AddEntry(ctx context.Context, req roster.AddEntryRequest) (*models.RosterEntry, error)
	RemoveEntryByPlayer(ctx context.Context, teamID, playerID uuid.UUID) error
}

// KeeperStore moves additional keeper slot allotments between teams.
type KeeperStore interface {
	GetAllotment(ctx context.Context, teamID uuid.UUID, season int) (*models.KeeperSlotAllotment, error)
	AdjustAdditionalSlots(ctx context.Context, teamID uuid.UUID, season, delta int) error
}

// LedgerStore appends immutable transaction records.
type LedgerStore interface {
	AppendRecord(ctx context.Context, txType models.TransactionType, season int, createdAt time.Time, items []ledger.ItemInput) (uuid.UUID, error)
}

// OutboxStore appends bus events inside the core transaction.
type OutboxStore interface {
	InsertEvent(ctx context.Context, aggregateID uuid.UUID, eventType string, payload json.RawMessage) error
}

// Stores bundles every persistence dependency of one trade operation.
type Stores struct {
	Trades TradeStore
	Roster RosterStore
	Keeper KeeperStore
	Ledger LedgerStore
	Outbox OutboxStore
}

// TxRunner executes fn with every store bound to one atomic transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(s Stores) error) error
}

// PlayerDirectory resolves player identity and position category.
type PlayerDirectory interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
}

// LineupReconciler keeps weekly lineups consistent after execution commits.
type LineupReconciler interface {
	OnPlayerAcquired(ctx context.Context, teamID uuid.UUID, season, fromWeek int, playerID uuid.UUID, position models.PositionCategory, replacing *uuid.UUID) error
	OnPlayerReleased(ctx context.Context, teamID uuid.UUID, season, fromWeek int, playerID uuid.UUID) error
}

// Notifier delivers best-effort notifications to team owners.
type Notifier interface {
	Notify(ctx context.Context, teamID uuid.UUID, event string, payload any) error
}

// App manages the three-phase trade lifecycle: propose, accept, execute.
// Rejection is possible from either non-terminal phase; no transition is
// ever reversed.
type App struct {
	stores     Stores
	txr        TxRunner
	players    PlayerDirectory
	reconciler LineupReconciler
	notifier   Notifier
	fx         *sideeffect.Dispatcher
	clock      clockwork.Clock
}

func NewApp(stores Stores, txr TxRunner, players PlayerDirectory, reconciler LineupReconciler, notifier Notifier, fx *sideeffect.Dispatcher, clock clockwork.Clock) *App {
	return &App{
		stores:     stores,
		txr:        txr,
		players:    players,
		reconciler: reconciler,
		notifier:   notifier,
		fx:         fx,
		clock:      clock,
	}
}

type ProposeTradeRequest struct {
	Season          int                `json:"season"`
	ProposingTeamID uuid.UUID          `json:"proposing_team_id"`
	TargetTeamID    uuid.UUID          `json:"target_team_id"`
	Items           []models.TradeItem `json:"items"`
	ProposingDrops  []uuid.UUID        `json:"proposing_drops,omitempty"`
}

// ProposeTrade validates and creates a proposal. The proposing team must
// declare enough drops to stay under the roster limit if the trade were
// executed against today's rosters; the target declares its drops at accept.
func (a *App) ProposeTrade(ctx context.Context, req ProposeTradeRequest) (*models.TradeProposal, error) {
	if err := a.validateProposeTradeRequest(ctx, req); err != nil {
		return nil, err
	}

	if err := a.validateDeclaredDrops(ctx, a.stores.Roster, req.ProposingTeamID, req.ProposingDrops, req.Items); err != nil {
		return nil, err
	}

	var trade *models.TradeProposal
	err := a.txr.InTx(ctx, func(s Stores) error {
		var err error
		trade, err = s.Trades.CreateTrade(ctx, CreateTradeRequest{
			Season:          req.Season,
			ProposingTeamID: req.ProposingTeamID,
			TargetTeamID:    req.TargetTeamID,
			Items:           req.Items,
			ProposingDrops:  req.ProposingDrops,
			CreatedAt:       a.clock.Now().UTC(),
		})
		if err != nil {
			return err
		}
		payload, err := json.Marshal(events.TradeProposedPayload{
			TradeID:         trade.ID.String(),
			ProposingTeamID: trade.ProposingTeamID.String(),
			TargetTeamID:    trade.TargetTeamID.String(),
			ItemCount:       len(trade.Items),
			ProposedAt:      trade.CreatedAt,
		})
		if err != nil {
			return err
		}
		return s.Outbox.InsertEvent(ctx, trade.ID, events.TypeTradeProposed, payload)
	})
	if err != nil {
		return nil, err
	}

	a.fx.Run(ctx, "notify.trade_proposed", func(ctx context.Context) error {
		return a.notifier.Notify(ctx, trade.TargetTeamID, events.TypeTradeProposed, map[string]string{
			"trade_id":          trade.ID.String(),
			"proposing_team_id": trade.ProposingTeamID.String(),
		})
	})

	log.Info().
		Str("trade_id", trade.ID.String()).
		Str("proposing_team_id", trade.ProposingTeamID.String()).
		Str("target_team_id", trade.TargetTeamID.String()).
		Int("items", len(trade.Items)).
		Msg("trade proposed")
	return trade, nil
}

type AcceptTradeRequest struct {
	TradeID     uuid.UUID   `json:"trade_id"`
	TeamID      uuid.UUID   `json:"team_id"`
	TargetDrops []uuid.UUID `json:"target_drops,omitempty"`
}

// AcceptTrade moves a proposal to ACCEPTED. Only the target team may accept,
// and it must declare enough drops to fit the incoming players.
func (a *App) AcceptTrade(ctx context.Context, req AcceptTradeRequest) (*models.TradeProposal, error) {
	trade, err := a.stores.Trades.GetTrade(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}
	if req.TeamID != trade.TargetTeamID {
		return nil, ErrNotTradeParticipant
	}
	if trade.Status != models.TradeStatusProposed {
		return nil, &StaleTradeStateError{TradeID: trade.ID, Expected: models.TradeStatusProposed, Actual: trade.Status}
	}

	if err := a.validateDeclaredDrops(ctx, a.stores.Roster, trade.TargetTeamID, req.TargetDrops, trade.Items); err != nil {
		return nil, err
	}

	now := a.clock.Now().UTC()
	err = a.txr.InTx(ctx, func(s Stores) error {
		if err := s.Trades.SetTargetDrops(ctx, trade.ID, req.TargetDrops, now); err != nil {
			return err
		}
		if err := s.Trades.TransitionStatus(ctx, trade.ID, models.TradeStatusProposed, models.TradeStatusAccepted, now); err != nil {
			return err
		}
		payload, err := json.Marshal(events.TradeAcceptedPayload{
			TradeID:    trade.ID.String(),
			TeamID:     req.TeamID.String(),
			AcceptedAt: now,
		})
		if err != nil {
			return err
		}
		return s.Outbox.InsertEvent(ctx, trade.ID, events.TypeTradeAccepted, payload)
	})
	if err != nil {
		return nil, err
	}

	a.fx.Run(ctx, "notify.trade_accepted", func(ctx context.Context) error {
		return a.notifier.Notify(ctx, trade.ProposingTeamID, events.TypeTradeAccepted, map[string]string{
			"trade_id": trade.ID.String(),
		})
	})

	log.Info().Str("trade_id", trade.ID.String()).Msg("trade accepted")
	return a.stores.Trades.GetTrade(ctx, trade.ID)
}

type RejectTradeRequest struct {
	TradeID uuid.UUID `json:"trade_id"`
	// ActorTeamID is nil when a league admin rejects.
	ActorTeamID *uuid.UUID `json:"actor_team_id,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// RejectTrade terminates a proposal from either non-terminal state. Both
// participants and admins may reject; completed trades cannot be.
func (a *App) RejectTrade(ctx context.Context, req RejectTradeRequest) error {
	trade, err := a.stores.Trades.GetTrade(ctx, req.TradeID)
	if err != nil {
		return err
	}
	if req.ActorTeamID != nil && *req.ActorTeamID != trade.ProposingTeamID && *req.ActorTeamID != trade.TargetTeamID {
		return ErrNotTradeParticipant
	}
	if trade.Status != models.TradeStatusProposed && trade.Status != models.TradeStatusAccepted {
		return &StaleTradeStateError{TradeID: trade.ID, Expected: models.TradeStatusProposed, Actual: trade.Status}
	}

	actor := "admin"
	if req.ActorTeamID != nil {
		actor = req.ActorTeamID.String()
	}
	now := a.clock.Now().UTC()

	err = a.txr.InTx(ctx, func(s Stores) error {
		if err := s.Trades.TransitionStatus(ctx, trade.ID, trade.Status, models.TradeStatusRejected, now); err != nil {
			return err
		}
		payload, err := json.Marshal(events.TradeRejectedPayload{
			TradeID:    trade.ID.String(),
			Actor:      actor,
			Reason:     req.Reason,
			RejectedAt: now,
		})
		if err != nil {
			return err
		}
		return s.Outbox.InsertEvent(ctx, trade.ID, events.TypeTradeRejected, payload)
	})
	if err != nil {
		return err
	}

	for _, teamID := range []uuid.UUID{trade.ProposingTeamID, trade.TargetTeamID} {
		teamID := teamID
		a.fx.Run(ctx, "notify.trade_rejected", func(ctx context.Context) error {
			return a.notifier.Notify(ctx, teamID, events.TypeTradeRejected, map[string]string{
				"trade_id": trade.ID.String(),
				"reason":   req.Reason,
			})
		})
	}

	log.Info().Str("trade_id", trade.ID.String()).Str("actor", actor).Msg("trade rejected")
	return nil
}

type ExecuteTradeRequest struct {
	TradeID uuid.UUID `json:"trade_id"`
	AdminID uuid.UUID `json:"admin_id"`
	// Week is the first not-yet-locked week; lineup substitution applies
	// from this week forward.
	Week int `json:"week"`
}

// ExecutionResult is the typed outcome of executing a trade.
type ExecutionResult struct {
	Trade         *models.TradeProposal `json:"trade"`
	TransactionID uuid.UUID             `json:"transaction_id"`
}

// ExecuteTrade is the admin approval step that makes an accepted trade real:
// re-validates every item against current rosters, applies declared drops,
// moves players and keeper slots, and appends the ledger record — all inside
// one atomic transaction. Nothing moves unless everything moves.
func (a *App) ExecuteTrade(ctx context.Context, req ExecuteTradeRequest) (*ExecutionResult, error) {
	trade, err := a.stores.Trades.GetTrade(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}
	if trade.Status != models.TradeStatusAccepted {
		return nil, &StaleTradeStateError{TradeID: trade.ID, Expected: models.TradeStatusAccepted, Actual: trade.Status}
	}

	var result *ExecutionResult
	err = a.txr.InTx(ctx, func(s Stores) error {
		now := a.clock.Now().UTC()

		// Both rosters are read and mutated below; lock the team rows
		// first so concurrent resolutions touching either roster
		// serialize against this transaction.
		if err := s.Roster.LockTeams(ctx, trade.ProposingTeamID, trade.TargetTeamID); err != nil {
			return err
		}

		// Claims the trade; a concurrent execution loses here.
		if err := s.Trades.TransitionStatus(ctx, trade.ID, models.TradeStatusAccepted, models.TradeStatusCompleted, now); err != nil {
			return err
		}

		current, err := s.Trades.GetTrade(ctx, trade.ID)
		if err != nil {
			return err
		}

		if err := a.revalidateItems(ctx, s, current); err != nil {
			return err
		}
		if err := a.checkRosterLimits(ctx, s.Roster, current); err != nil {
			return err
		}

		snaps, err := captureRosterCounts(ctx, s.Roster, current, nil)
		if err != nil {
			return err
		}

		if err := a.applyDrops(ctx, s.Roster, current); err != nil {
			return err
		}
		if err := a.applyItems(ctx, s, current, now); err != nil {
			return err
		}

		snaps, err = captureRosterCounts(ctx, s.Roster, current, snaps)
		if err != nil {
			return err
		}

		txID, err := s.Ledger.AppendRecord(ctx, models.TransactionTypeTrade, current.Season, now, a.ledgerItems(current, snaps))
		if err != nil {
			return err
		}

		payload, err := json.Marshal(events.TradeCompletedPayload{
			TradeID:       current.ID.String(),
			TransactionID: txID.String(),
			ItemCount:     len(current.Items),
			CompletedAt:   now,
		})
		if err != nil {
			return err
		}
		if err := s.Outbox.InsertEvent(ctx, current.ID, events.TypeTradeCompleted, payload); err != nil {
			return err
		}

		executed := *current
		executed.Status = models.TradeStatusCompleted
		result = &ExecutionResult{Trade: &executed, TransactionID: txID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.dispatchExecutionEffects(ctx, result.Trade, req.Week)

	log.Info().
		Str("trade_id", result.Trade.ID.String()).
		Str("admin_id", req.AdminID.String()).
		Str("transaction_id", result.TransactionID.String()).
		Msg("trade executed")
	return result, nil
}

func (a *App) GetTrade(ctx context.Context, id uuid.UUID) (*models.TradeProposal, error) {
	return a.stores.Trades.GetTrade(ctx, id)
}

func (a *App) ListTrades(ctx context.Context, teamID uuid.UUID, season int, status *models.TradeStatus) ([]models.TradeProposal, error) {
	return a.stores.Trades.ListByTeam(ctx, teamID, season, status)
}

func (a *App) validateProposeTradeRequest(ctx context.Context, req ProposeTradeRequest) error {
	if req.ProposingTeamID == uuid.Nil || req.TargetTeamID == uuid.Nil {
		return fmt.Errorf("both team ids are required")
	}
	if req.ProposingTeamID == req.TargetTeamID {
		return ErrSelfTrade
	}
	if req.Season <= 0 {
		return fmt.Errorf("season is required")
	}
	if len(req.Items) == 0 {
		return ErrEmptyTrade
	}

	participants := map[uuid.UUID]bool{req.ProposingTeamID: true, req.TargetTeamID: true}
	offeredSlots := make(map[uuid.UUID]int)
	for _, item := range req.Items {
		if !participants[item.FromTeam()] || !participants[item.ToTeam()] {
			return ErrItemOutsideTrade
		}
		if item.FromTeam() == item.ToTeam() {
			return fmt.Errorf("%w: item moves between the same team", ErrItemOutsideTrade)
		}

		switch it := item.(type) {
		case models.PlayerItem:
			if _, err := a.stores.Roster.GetEntry(ctx, it.FromTeamID, it.PlayerID); err != nil {
				return &PlayerNotOwnedError{TeamID: it.FromTeamID, PlayerID: it.PlayerID}
			}
		case models.DraftPickItem:
			if err := validatePick(req.Season, it.Season, it.Round); err != nil {
				return err
			}
		case models.FreeAgentPickItem:
			if err := validatePick(req.Season, it.Season, it.Round); err != nil {
				return err
			}
		case models.KeeperSlotItem:
			if it.Slots <= 0 {
				return fmt.Errorf("keeper slot item must move at least one slot")
			}
			offeredSlots[it.FromTeamID] += it.Slots
		default:
			return fmt.Errorf("unknown trade item type: %T", item)
		}
	}

	for teamID, slots := range offeredSlots {
		allotment, err := a.stores.Keeper.GetAllotment(ctx, teamID, req.Season)
		if err != nil {
			return err
		}
		if allotment.AdditionalSlots < slots {
			return fmt.Errorf("%w: team %s offers %d, holds %d",
				ErrInsufficientSlots, teamID, slots, allotment.AdditionalSlots)
		}
	}
	return nil
}

func validatePick(tradeSeason, pickSeason, round int) error {
	if pickSeason < tradeSeason || pickSeason > tradeSeason+pickSeasonWindow {
		return fmt.Errorf("%w: season %d, tradable %d-%d",
			ErrInvalidPickSeason, pickSeason, tradeSeason, tradeSeason+pickSeasonWindow)
	}
	if round < 1 || round > MaxPickRound {
		return fmt.Errorf("%w: round %d", ErrInvalidPickRound, round)
	}
	return nil
}

// validateDeclaredDrops checks one side's drop list: each drop must be a
// rostered player that is not already leaving in the trade, and the list must
// cover the side's net player gain over the roster limit.
func (a *App) validateDeclaredDrops(ctx context.Context, store RosterStore, teamID uuid.UUID, drops []uuid.UUID, items []models.TradeItem) error {
	departing := make(map[uuid.UUID]bool)
	for _, item := range items {
		if p, ok := item.(models.PlayerItem); ok && p.FromTeamID == teamID {
			departing[p.PlayerID] = true
		}
	}

	seen := make(map[uuid.UUID]bool, len(drops))
	for _, playerID := range drops {
		if seen[playerID] {
			return fmt.Errorf("duplicate drop player %s", playerID)
		}
		seen[playerID] = true
		if departing[playerID] {
			return fmt.Errorf("%w: %s", ErrDropPlayerDeparting, playerID)
		}
		if _, err := store.GetEntry(ctx, teamID, playerID); err != nil {
			return fmt.Errorf("%w: %s", ErrDropPlayerNotOwned, playerID)
		}
	}

	size, err := store.CountByTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to count roster: %w", err)
	}
	overflow := size + netPlayerGain(items, teamID) - len(drops) - models.MaxRosterSize
	if overflow > 0 {
		return &MustSelectDropsError{TeamID: teamID, PlayersToDrop: overflow}
	}
	return nil
}

// netPlayerGain is incoming minus outgoing player items for one team.
func netPlayerGain(items []models.TradeItem, teamID uuid.UUID) int {
	gain := 0
	for _, item := range items {
		if _, ok := item.(models.PlayerItem); !ok {
			continue
		}
		if item.ToTeam() == teamID {
			gain++
		}
		if item.FromTeam() == teamID {
			gain--
		}
	}
	return gain
}

// revalidateItems re-checks ownership and keeper balances against
// transaction-consistent state. Rosters may have changed between acceptance
// and execution.
func (a *App) revalidateItems(ctx context.Context, s Stores, trade *models.TradeProposal) error {
	offeredSlots := make(map[uuid.UUID]int)
	for _, item := range trade.Items {
		switch it := item.(type) {
		case models.PlayerItem:
			if _, err := s.Roster.GetEntry(ctx, it.FromTeamID, it.PlayerID); err != nil {
				return &PlayerNotOwnedError{TeamID: it.FromTeamID, PlayerID: it.PlayerID}
			}
		case models.KeeperSlotItem:
			offeredSlots[it.FromTeamID] += it.Slots
		}
	}
	for teamID, slots := range offeredSlots {
		allotment, err := s.Keeper.GetAllotment(ctx, teamID, trade.Season)
		if err != nil {
			return err
		}
		if allotment.AdditionalSlots < slots {
			return fmt.Errorf("%w: team %s offers %d, holds %d",
				ErrInsufficientSlots, teamID, slots, allotment.AdditionalSlots)
		}
	}

	for _, side := range []struct {
		teamID uuid.UUID
		drops  []uuid.UUID
	}{
		{trade.ProposingTeamID, trade.ProposingDrops},
		{trade.TargetTeamID, trade.TargetDrops},
	} {
		for _, playerID := range side.drops {
			if _, err := s.Roster.GetEntry(ctx, side.teamID, playerID); err != nil {
				return fmt.Errorf("%w: %s", ErrDropPlayerNotOwned, playerID)
			}
		}
	}
	return nil
}

// checkRosterLimits recomputes post-execution sizes with declared drops.
// Drift since acceptance surfaces as a typed overflow, never a partial apply.
func (a *App) checkRosterLimits(ctx context.Context, store RosterStore, trade *models.TradeProposal) error {
	sides := []struct {
		teamID uuid.UUID
		drops  []uuid.UUID
	}{
		{trade.ProposingTeamID, trade.ProposingDrops},
		{trade.TargetTeamID, trade.TargetDrops},
	}
	for _, side := range sides {
		size, err := store.CountByTeam(ctx, side.teamID)
		if err != nil {
			return fmt.Errorf("failed to count roster: %w", err)
		}
		overflow := size + netPlayerGain(trade.Items, side.teamID) - len(side.drops) - models.MaxRosterSize
		if overflow > 0 {
			return &RosterLimitError{TeamID: side.teamID, PlayersToDrop: overflow}
		}
	}
	return nil
}

func (a *App) applyDrops(ctx context.Context, store RosterStore, trade *models.TradeProposal) error {
	for _, side := range []struct {
		teamID uuid.UUID
		drops  []uuid.UUID
	}{
		{trade.ProposingTeamID, trade.ProposingDrops},
		{trade.TargetTeamID, trade.TargetDrops},
	} {
		for _, playerID := range side.drops {
			if err := store.RemoveEntryByPlayer(ctx, side.teamID, playerID); err != nil {
				return fmt.Errorf("failed to drop player %s: %w", playerID, err)
			}
		}
	}
	return nil
}

func (a *App) applyItems(ctx context.Context, s Stores, trade *models.TradeProposal, now time.Time) error {
	for _, item := range trade.Items {
		switch it := item.(type) {
		case models.PlayerItem:
			if err := s.Roster.RemoveEntryByPlayer(ctx, it.FromTeamID, it.PlayerID); err != nil {
				return fmt.Errorf("failed to move player %s: %w", it.PlayerID, err)
			}
			if _, err := s.Roster.AddEntry(ctx, roster.AddEntryRequest{
				TeamID:          it.ToTeamID,
				PlayerID:        it.PlayerID,
				AcquisitionType: models.AcquisitionTypeTrade,
				AcquiredAt:      now,
			}); err != nil {
				return fmt.Errorf("failed to move player %s: %w", it.PlayerID, err)
			}
		case models.KeeperSlotItem:
			if err := s.Keeper.AdjustAdditionalSlots(ctx, it.FromTeamID, trade.Season, -it.Slots); err != nil {
				return err
			}
			if err := s.Keeper.AdjustAdditionalSlots(ctx, it.ToTeamID, trade.Season, it.Slots); err != nil {
				return err
			}
		}
		// Draft and free-agent picks are not materialized assets; the
		// ledger record is their transfer of ownership.
	}
	return nil
}

// rosterSnapshot records one team's roster size on either side of the
// execution, stored on player-move ledger items for audit.
type rosterSnapshot struct {
	Before int `json:"roster_before"`
	After  int `json:"roster_after"`
}

// captureRosterCounts reads both teams' roster sizes. Called once before any
// mutation and once after all of them; the second call fills in After.
func captureRosterCounts(ctx context.Context, rosters RosterStore, trade *models.TradeProposal, prior map[uuid.UUID]rosterSnapshot) (map[uuid.UUID]rosterSnapshot, error) {
	snaps := make(map[uuid.UUID]rosterSnapshot, 2)
	for _, teamID := range []uuid.UUID{trade.ProposingTeamID, trade.TargetTeamID} {
		count, err := rosters.CountByTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if prior == nil {
			snaps[teamID] = rosterSnapshot{Before: count}
			continue
		}
		snap := prior[teamID]
		snap.After = count
		snaps[teamID] = snap
	}
	return snaps, nil
}

// ledgerItems renders one acquired and one lost entry per trade item, plus
// a lost entry for every declared drop. Player moves carry the owning team's
// roster size before and after execution.
func (a *App) ledgerItems(trade *models.TradeProposal, snaps map[uuid.UUID]rosterSnapshot) []ledger.ItemInput {
	var items []ledger.ItemInput
	tradeRef, _ := json.Marshal(map[string]string{"trade_id": trade.ID.String()})

	detailFor := func(item models.TradeItem, teamID uuid.UUID) json.RawMessage {
		if item.ItemType() == models.TradeItemTypePlayer {
			p := item.(models.PlayerItem)
			detail, err := json.Marshal(struct {
				models.PlayerItem
				rosterSnapshot
			}{p, snaps[teamID]})
			if err == nil {
				return detail
			}
		}
		detail, err := encodeItem(item)
		if err != nil {
			return tradeRef
		}
		return detail
	}

	for _, item := range trade.Items {
		var playerID *uuid.UUID
		if p, ok := item.(models.PlayerItem); ok {
			id := p.PlayerID
			playerID = &id
		}
		items = append(items,
			ledger.ItemInput{
				TeamID:    item.ToTeam(),
				Direction: models.TransactionAcquired,
				AssetType: item.ItemType(),
				PlayerID:  playerID,
				Detail:    detailFor(item, item.ToTeam()),
			},
			ledger.ItemInput{
				TeamID:    item.FromTeam(),
				Direction: models.TransactionLost,
				AssetType: item.ItemType(),
				PlayerID:  playerID,
				Detail:    detailFor(item, item.FromTeam()),
			},
		)
	}

	for _, side := range []struct {
		teamID uuid.UUID
		drops  []uuid.UUID
	}{
		{trade.ProposingTeamID, trade.ProposingDrops},
		{trade.TargetTeamID, trade.TargetDrops},
	} {
		for _, playerID := range side.drops {
			id := playerID
			items = append(items, ledger.ItemInput{
				TeamID:    side.teamID,
				Direction: models.TransactionLost,
				AssetType: models.TradeItemTypePlayer,
				PlayerID:  &id,
				Detail:    tradeRef,
			})
		}
	}
	return items
}

// dispatchExecutionEffects runs post-commit lineup reconciliation and
// notifications. Failures are logged, never propagated.
func (a *App) dispatchExecutionEffects(ctx context.Context, trade *models.TradeProposal, week int) {
	for _, item := range trade.Items {
		p, ok := item.(models.PlayerItem)
		if !ok {
			continue
		}
		moved := p
		a.fx.Run(ctx, "lineup.trade_player_moved", func(ctx context.Context) error {
			player, err := a.players.GetPlayer(ctx, moved.PlayerID)
			if err != nil {
				return err
			}
			if err := a.reconciler.OnPlayerReleased(ctx, moved.FromTeamID, trade.Season, week, moved.PlayerID); err != nil {
				return err
			}
			return a.reconciler.OnPlayerAcquired(ctx, moved.ToTeamID, trade.Season, week, moved.PlayerID, player.Position, nil)
		})
	}

	for _, side := range []struct {
		teamID uuid.UUID
		drops  []uuid.UUID
	}{
		{trade.ProposingTeamID, trade.ProposingDrops},
		{trade.TargetTeamID, trade.TargetDrops},
	} {
		for _, playerID := range side.drops {
			teamID := side.teamID
			dropped := playerID
			a.fx.Run(ctx, "lineup.trade_player_dropped", func(ctx context.Context) error {
				return a.reconciler.OnPlayerReleased(ctx, teamID, trade.Season, week, dropped)
			})
		}
	}

	for _, teamID := range []uuid.UUID{trade.ProposingTeamID, trade.TargetTeamID} {
		teamID := teamID
		a.fx.Run(ctx, "notify.trade_completed", func(ctx context.Context) error {
			return a.notifier.Notify(ctx, teamID, events.TypeTradeCompleted, map[string]string{
				"trade_id": trade.ID.String(),
			})
		})
	}
}
