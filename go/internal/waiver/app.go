package waiver

import (
	"context"
	"encoding/json"
	"errors"
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

// ClaimStore defines what the resolver needs from the claim repository.
type ClaimStore interface {
	CreateClaim(ctx context.Context, req CreateClaimRequest) (*models.WaiverClaim, error)
	GetClaim(ctx context.Context, id uuid.UUID) (*models.WaiverClaim, error)
	ListPendingByTeam(ctx context.Context, teamID uuid.UUID, season int) ([]models.WaiverClaim, error)
	CountPendingNoDrop(ctx context.Context, teamID uuid.UUID, season int) (int, error)
	ListPendingReferencing(ctx context.Context, season int, pickupID uuid.UUID, dropID *uuid.UUID) ([]models.WaiverClaim, error)
	SetSubmissionOrder(ctx context.Context, claimID uuid.UUID, order int) error
	MarkApproved(ctx context.Context, claimID uuid.UUID, priority int, at time.Time) error
	MarkRejected(ctx context.Context, claimID uuid.UUID, reason string, priority *int, at time.Time) error
}

// RosterStore defines what the resolver needs from the roster store.
type RosterStore interface {
	FindEntryByPlayer(ctx context.Context, playerID uuid.UUID) (*models.RosterEntry, error)
	GetEntry(ctx context.Context, teamID, playerID uuid.UUID) (*models.RosterEntry, error)
	CountByTeam(ctx context.Context, teamID uuid.UUID) (int, error)
	LockTeams(ctx context.Context, teamIDs ...uuid.UUID) error
	AddEntry(ctx context.Context, req roster.AddEntryRequest) (*models.RosterEntry, error)
	RemoveEntryByPlayer(ctx context.Context, teamID, playerID uuid.UUID) error
}

// LedgerStore appends immutable transaction records.
type LedgerStore interface {
	AppendRecord(ctx context.Context, txType models.TransactionType, season int, createdAt time.Time, items []ledger.ItemInput) (uuid.UUID, error)
}

// OutboxStore appends bus events inside the core transaction.
type OutboxStore interface {
	InsertEvent(ctx context.Context, aggregateID uuid.UUID, eventType string, payload json.RawMessage) error
}

// Stores bundles every persistence dependency of one resolver operation.
type Stores struct {
	Claims ClaimStore
	Roster RosterStore
	Ledger LedgerStore
	Outbox OutboxStore
}

// TxRunner executes fn with every store bound to one atomic transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(s Stores) error) error
}

// StandingsProvider supplies the rank used to compute waiver priority.
type StandingsProvider interface {
	Rank(ctx context.Context, season int, teamID uuid.UUID) (rank, total int, err error)
}

// PlayerDirectory resolves player identity and position category.
type PlayerDirectory interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
}

// LineupReconciler is the external boundary that keeps weekly lineups
// consistent. Called only after the core transaction commits.
type LineupReconciler interface {
	ReserveProvisionalSlot(ctx context.Context, teamID, playerID uuid.UUID, position models.PositionCategory, season, week int, claimID uuid.UUID) error
	ReleaseProvisionalSlot(ctx context.Context, claimID uuid.UUID) error
	OnClaimApproved(ctx context.Context, claim *models.WaiverClaim, position models.PositionCategory, fromWeek int) error
}

// Notifier delivers best-effort notifications to team owners.
type Notifier interface {
	Notify(ctx context.Context, teamID uuid.UUID, event string, payload any) error
}

// App is the waiver claim queue and resolver.
type App struct {
	stores     Stores // bound to the pool, for reads and single-row writes
	txr        TxRunner
	standings  StandingsProvider
	players    PlayerDirectory
	reconciler LineupReconciler
	notifier   Notifier
	fx         *sideeffect.Dispatcher
	clock      clockwork.Clock
}

func NewApp(stores Stores, txr TxRunner, standings StandingsProvider, players PlayerDirectory, reconciler LineupReconciler, notifier Notifier, fx *sideeffect.Dispatcher, clock clockwork.Clock) *App {
	return &App{
		stores:     stores,
		txr:        txr,
		standings:  standings,
		players:    players,
		reconciler: reconciler,
		notifier:   notifier,
		fx:         fx,
		clock:      clock,
	}
}

type SubmitClaimRequest struct {
	TeamID         uuid.UUID  `json:"team_id"`
	Season         int        `json:"season"`
	Week           int        `json:"week"`
	PickupPlayerID uuid.UUID  `json:"pickup_player_id"`
	DropPlayerID   *uuid.UUID `json:"drop_player_id,omitempty"`
	Round          int        `json:"round"`
}

// SubmitClaim creates a pending claim. Multiple teams may hold simultaneous
// pending claims on the same pickup player; that conflict is resolved at
// approval time, not here.
func (a *App) SubmitClaim(ctx context.Context, req SubmitClaimRequest) (*models.WaiverClaim, error) {
	if err := a.validateSubmitClaimRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	owned, err := a.stores.Roster.FindEntryByPlayer(ctx, req.PickupPlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pickup availability: %w", err)
	}
	if owned != nil {
		return nil, &PlayerRosteredError{PlayerID: req.PickupPlayerID, OwnerTeamID: owned.TeamID}
	}

	if req.DropPlayerID != nil {
		if _, err := a.stores.Roster.GetEntry(ctx, req.TeamID, *req.DropPlayerID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDropPlayerNotOwned, *req.DropPlayerID)
		}
	} else {
		size, err := a.stores.Roster.CountByTeam(ctx, req.TeamID)
		if err != nil {
			return nil, fmt.Errorf("failed to count roster: %w", err)
		}
		pendingNoDrop, err := a.stores.Claims.CountPendingNoDrop(ctx, req.TeamID, req.Season)
		if err != nil {
			return nil, fmt.Errorf("failed to count pending claims: %w", err)
		}
		if size+pendingNoDrop >= models.MaxRosterSize {
			return nil, &RosterFullError{TeamID: req.TeamID, RosterSize: size, PendingNoDropBids: pendingNoDrop}
		}
	}

	pending, err := a.stores.Claims.ListPendingByTeam(ctx, req.TeamID, req.Season)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending claims: %w", err)
	}

	claim, err := a.stores.Claims.CreateClaim(ctx, CreateClaimRequest{
		TeamID:          req.TeamID,
		Season:          req.Season,
		PickupPlayerID:  req.PickupPlayerID,
		DropPlayerID:    req.DropPlayerID,
		Round:           req.Round,
		SubmissionOrder: len(pending) + 1,
		CreatedAt:       a.clock.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create waiver claim: %w", err)
	}

	a.fx.Run(ctx, "lineup.reserve_provisional", func(ctx context.Context) error {
		player, err := a.players.GetPlayer(ctx, claim.PickupPlayerID)
		if err != nil {
			return err
		}
		return a.reconciler.ReserveProvisionalSlot(ctx, claim.TeamID, claim.PickupPlayerID, player.Position, claim.Season, req.Week, claim.ID)
	})

	log.Info().
		Str("claim_id", claim.ID.String()).
		Str("team_id", claim.TeamID.String()).
		Str("pickup_player_id", claim.PickupPlayerID.String()).
		Int("round", claim.Round).
		Msg("waiver claim submitted")
	return claim, nil
}

// ReorderClaims renumbers a team's pending queue. orderedIDs must be exactly
// the team's pending claims.
func (a *App) ReorderClaims(ctx context.Context, teamID uuid.UUID, season int, orderedIDs []uuid.UUID) error {
	pending, err := a.stores.Claims.ListPendingByTeam(ctx, teamID, season)
	if err != nil {
		return fmt.Errorf("failed to list pending claims: %w", err)
	}
	if len(orderedIDs) != len(pending) {
		return fmt.Errorf("reorder must include all %d pending claims, got %d", len(pending), len(orderedIDs))
	}
	byID := make(map[uuid.UUID]bool, len(pending))
	for _, c := range pending {
		byID[c.ID] = true
	}
	for _, id := range orderedIDs {
		if !byID[id] {
			return fmt.Errorf("claim %s is not a pending claim of team %s", id, teamID)
		}
		delete(byID, id)
	}

	return a.txr.InTx(ctx, func(s Stores) error {
		for i, id := range orderedIDs {
			if err := s.Claims.SetSubmissionOrder(ctx, id, i+1); err != nil {
				return err
			}
		}
		return nil
	})
}

// CancelClaim lets the owning team withdraw a pending claim. The claim row
// is kept for audit with an owner-cancelled reason.
func (a *App) CancelClaim(ctx context.Context, claimID, teamID uuid.UUID) error {
	claim, err := a.stores.Claims.GetClaim(ctx, claimID)
	if err != nil {
		return err
	}
	if claim.TeamID != teamID {
		return ErrNotClaimOwner
	}
	if claim.Status != models.WaiverClaimStatusPending {
		return ErrClaimNotPending
	}

	if err := a.stores.Claims.MarkRejected(ctx, claimID, models.RejectionReasonOwnerCancelled, nil, a.clock.Now().UTC()); err != nil {
		return err
	}

	a.fx.Run(ctx, "lineup.release_provisional", func(ctx context.Context) error {
		return a.reconciler.ReleaseProvisionalSlot(ctx, claimID)
	})

	log.Info().Str("claim_id", claimID.String()).Str("team_id", teamID.String()).Msg("waiver claim cancelled")
	return nil
}

type ApproveClaimRequest struct {
	ClaimID uuid.UUID `json:"claim_id"`
	AdminID uuid.UUID `json:"admin_id"`
	// Week is the first not-yet-locked week; lineup substitution applies
	// from this week forward.
	Week int `json:"week"`
}

// ApprovalResult is the typed outcome of an approval. Callers must inspect
// the cascade-rejection list rather than assume success means "no effects
// elsewhere".
type ApprovalResult struct {
	Claim          *models.WaiverClaim  `json:"claim"`
	TransactionID  uuid.UUID            `json:"transaction_id"`
	Priority       int                  `json:"priority"`
	RejectedClaims []models.WaiverClaim `json:"rejected_claims"`
}

// ApproveClaim executes a claim chosen for approval: re-validates
// availability, computes approval-time priorities, cascade-rejects competing
// claims, mutates the roster store, and appends the ledger record — all
// inside one atomic transaction. Lineup reconciliation and notifications run
// after commit and cannot roll it back.
func (a *App) ApproveClaim(ctx context.Context, req ApproveClaimRequest) (*ApprovalResult, error) {
	claim, err := a.stores.Claims.GetClaim(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != models.WaiverClaimStatusPending {
		return nil, ErrClaimNotPending
	}

	priorities, err := a.computePriorities(ctx, claim)
	if err != nil {
		return nil, err
	}

	var result *ApprovalResult
	err = a.txr.InTx(ctx, func(s Stores) error {
		// Lock the claiming team's row first: concurrent resolutions for
		// the same team serialize here, so the roster count below stays
		// valid until commit.
		if err := s.Roster.LockTeams(ctx, claim.TeamID); err != nil {
			return err
		}

		// Re-validate availability against transaction-consistent state.
		// A concurrent approval for the same player loses here, or at the
		// latest on the player_id unique index when it inserts.
		owned, err := s.Roster.FindEntryByPlayer(ctx, claim.PickupPlayerID)
		if err != nil {
			return fmt.Errorf("failed to re-check pickup availability: %w", err)
		}
		if owned != nil {
			return fmt.Errorf("%w: player %s rostered by team %s", ErrPlayerNoLongerAvailable, claim.PickupPlayerID, owned.TeamID)
		}

		current, err := s.Claims.GetClaim(ctx, claim.ID)
		if err != nil {
			return err
		}
		if current.Status != models.WaiverClaimStatusPending {
			return ErrClaimNotPending
		}

		size, err := s.Roster.CountByTeam(ctx, current.TeamID)
		if err != nil {
			return fmt.Errorf("failed to count roster: %w", err)
		}
		if current.DropPlayerID == nil && size >= models.MaxRosterSize {
			return &RosterFullError{TeamID: current.TeamID, RosterSize: size}
		}

		competing, err := s.Claims.ListPendingReferencing(ctx, current.Season, current.PickupPlayerID, current.DropPlayerID)
		if err != nil {
			return err
		}
		// Claims submitted after the pre-transaction snapshot still get a
		// persisted priority marker.
		for _, c := range competing {
			if _, ok := priorities[c.TeamID]; ok {
				continue
			}
			rank, total, err := a.standings.Rank(ctx, current.Season, c.TeamID)
			if err != nil {
				return fmt.Errorf("failed to get standings rank for team %s: %w", c.TeamID, err)
			}
			priorities[c.TeamID] = total - rank + 1
		}
		plan := BuildApprovalPlan(current, competing, priorities)
		now := a.clock.Now().UTC()

		if err := s.Claims.MarkApproved(ctx, current.ID, plan.Priority, now); err != nil {
			return err
		}
		for _, rejection := range plan.Cascade {
			if err := s.Claims.MarkRejected(ctx, rejection.Claim.ID, models.RejectionReasonSuperseded, rejection.Priority, now); err != nil {
				return err
			}
		}

		if current.DropPlayerID != nil {
			if err := s.Roster.RemoveEntryByPlayer(ctx, current.TeamID, *current.DropPlayerID); err != nil {
				return fmt.Errorf("failed to drop player: %w", err)
			}
		}
		if _, err := s.Roster.AddEntry(ctx, roster.AddEntryRequest{
			TeamID:          current.TeamID,
			PlayerID:        current.PickupPlayerID,
			AcquisitionType: models.AcquisitionTypeFreeAgent,
			AcquiredAt:      now,
		}); err != nil {
			// A concurrent approval for the same player commits first and
			// this insert hits the ownership index.
			if errors.Is(err, roster.ErrPlayerOwned) {
				return fmt.Errorf("%w: player %s", ErrPlayerNoLongerAvailable, current.PickupPlayerID)
			}
			return fmt.Errorf("failed to add pickup player: %w", err)
		}

		txID, err := s.Ledger.AppendRecord(ctx, models.TransactionTypeWaiver, current.Season, now, a.ledgerItems(current, plan.Priority))
		if err != nil {
			return err
		}

		if err := a.insertApprovalEvents(ctx, s.Outbox, current, plan, txID, now); err != nil {
			return err
		}

		approved := *current
		approved.Status = models.WaiverClaimStatusApproved
		approved.ResolvedPriority = &plan.Priority
		approved.ResolvedAt = &now

		rejected := make([]models.WaiverClaim, 0, len(plan.Cascade))
		for _, rejection := range plan.Cascade {
			c := rejection.Claim
			c.Status = models.WaiverClaimStatusRejected
			reason := models.RejectionReasonSuperseded
			c.RejectionReason = &reason
			c.ResolvedPriority = rejection.Priority
			c.ResolvedAt = &now
			rejected = append(rejected, c)
		}

		result = &ApprovalResult{
			Claim:          &approved,
			TransactionID:  txID,
			Priority:       plan.Priority,
			RejectedClaims: rejected,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.dispatchApprovalEffects(ctx, result, req.Week)

	log.Info().
		Str("claim_id", result.Claim.ID.String()).
		Str("admin_id", req.AdminID.String()).
		Str("transaction_id", result.TransactionID.String()).
		Int("priority", result.Priority).
		Int("cascade_rejections", len(result.RejectedClaims)).
		Msg("waiver claim approved")
	return result, nil
}

type RejectClaimRequest struct {
	ClaimID uuid.UUID `json:"claim_id"`
	AdminID uuid.UUID `json:"admin_id"`
	Reason  *string   `json:"reason,omitempty"`
}

// RejectClaim marks a single claim rejected without touching the roster
// store. Only that claim's provisional lineup placeholder is cleared.
func (a *App) RejectClaim(ctx context.Context, req RejectClaimRequest) error {
	claim, err := a.stores.Claims.GetClaim(ctx, req.ClaimID)
	if err != nil {
		return err
	}
	if claim.Status != models.WaiverClaimStatusPending {
		return ErrClaimNotPending
	}

	reason := models.RejectionReasonAdminRejected
	if req.Reason != nil && *req.Reason != "" {
		reason = *req.Reason
	}
	now := a.clock.Now().UTC()

	err = a.txr.InTx(ctx, func(s Stores) error {
		if err := s.Claims.MarkRejected(ctx, claim.ID, reason, nil, now); err != nil {
			return err
		}
		payload, err := json.Marshal(events.WaiverClaimRejectedPayload{
			ClaimID:        claim.ID.String(),
			TeamID:         claim.TeamID.String(),
			PickupPlayerID: claim.PickupPlayerID.String(),
			Reason:         reason,
			RejectedAt:     now,
		})
		if err != nil {
			return err
		}
		return s.Outbox.InsertEvent(ctx, claim.ID, events.TypeWaiverClaimRejected, payload)
	})
	if err != nil {
		return err
	}

	a.fx.Run(ctx, "lineup.release_provisional", func(ctx context.Context) error {
		return a.reconciler.ReleaseProvisionalSlot(ctx, claim.ID)
	})
	a.fx.Run(ctx, "notify.claim_rejected", func(ctx context.Context) error {
		return a.notifier.Notify(ctx, claim.TeamID, events.TypeWaiverClaimRejected, map[string]string{
			"claim_id": claim.ID.String(),
			"reason":   reason,
		})
	})

	log.Info().Str("claim_id", claim.ID.String()).Str("reason", reason).Msg("waiver claim rejected")
	return nil
}

// PendingQueue returns a team's pending claims in queue order.
func (a *App) PendingQueue(ctx context.Context, teamID uuid.UUID, season int) ([]models.WaiverClaim, error) {
	return a.stores.Claims.ListPendingByTeam(ctx, teamID, season)
}

// computePriorities maps each team with a claim touching the approved
// claim's players to its approval-time waiver priority. Priority 1 is the
// highest (the worst-placed team picks first).
func (a *App) computePriorities(ctx context.Context, claim *models.WaiverClaim) (map[uuid.UUID]int, error) {
	competing, err := a.stores.Claims.ListPendingReferencing(ctx, claim.Season, claim.PickupPlayerID, claim.DropPlayerID)
	if err != nil {
		return nil, err
	}

	teams := map[uuid.UUID]bool{claim.TeamID: true}
	for _, c := range competing {
		teams[c.TeamID] = true
	}

	priorities := make(map[uuid.UUID]int, len(teams))
	for teamID := range teams {
		rank, total, err := a.standings.Rank(ctx, claim.Season, teamID)
		if err != nil {
			return nil, fmt.Errorf("failed to get standings rank for team %s: %w", teamID, err)
		}
		priorities[teamID] = total - rank + 1
	}
	return priorities, nil
}

type waiverItemDetail struct {
	Round    int `json:"round"`
	Priority int `json:"priority"`
}

func (a *App) ledgerItems(claim *models.WaiverClaim, priority int) []ledger.ItemInput {
	detail, _ := json.Marshal(waiverItemDetail{Round: claim.Round, Priority: priority})
	pickupID := claim.PickupPlayerID
	items := []ledger.ItemInput{{
		TeamID:    claim.TeamID,
		Direction: models.TransactionAcquired,
		AssetType: models.TradeItemTypePlayer,
		PlayerID:  &pickupID,
		Detail:    detail,
	}}
	if claim.DropPlayerID != nil {
		items = append(items, ledger.ItemInput{
			TeamID:    claim.TeamID,
			Direction: models.TransactionLost,
			AssetType: models.TradeItemTypePlayer,
			PlayerID:  claim.DropPlayerID,
			Detail:    detail,
		})
	}
	return items
}

func (a *App) insertApprovalEvents(ctx context.Context, box OutboxStore, claim *models.WaiverClaim, plan ApprovalPlan, txID uuid.UUID, now time.Time) error {
	rejectedIDs := make([]string, 0, len(plan.Cascade))
	for _, rejection := range plan.Cascade {
		rejectedIDs = append(rejectedIDs, rejection.Claim.ID.String())
	}

	approved := events.WaiverClaimApprovedPayload{
		ClaimID:          claim.ID.String(),
		TeamID:           claim.TeamID.String(),
		PickupPlayerID:   claim.PickupPlayerID.String(),
		Round:            claim.Round,
		Priority:         plan.Priority,
		TransactionID:    txID.String(),
		RejectedClaimIDs: rejectedIDs,
		ApprovedAt:       now,
	}
	if claim.DropPlayerID != nil {
		approved.DropPlayerID = claim.DropPlayerID.String()
	}
	payload, err := json.Marshal(approved)
	if err != nil {
		return err
	}
	if err := box.InsertEvent(ctx, claim.ID, events.TypeWaiverClaimApproved, payload); err != nil {
		return err
	}

	for _, rejection := range plan.Cascade {
		payload, err := json.Marshal(events.WaiverClaimRejectedPayload{
			ClaimID:        rejection.Claim.ID.String(),
			TeamID:         rejection.Claim.TeamID.String(),
			PickupPlayerID: rejection.Claim.PickupPlayerID.String(),
			Reason:         models.RejectionReasonSuperseded,
			RejectedAt:     now,
		})
		if err != nil {
			return err
		}
		if err := box.InsertEvent(ctx, rejection.Claim.ID, events.TypeWaiverClaimRejected, payload); err != nil {
			return err
		}
	}
	return nil
}

// dispatchApprovalEffects runs the post-commit side effects: confirm and
// substitute lineup slots for the winner, release placeholders for the
// losers, notify everyone involved. Failures are logged, never propagated —
// the roster change is already committed.
func (a *App) dispatchApprovalEffects(ctx context.Context, result *ApprovalResult, week int) {
	a.fx.Run(ctx, "lineup.on_claim_approved", func(ctx context.Context) error {
		player, err := a.players.GetPlayer(ctx, result.Claim.PickupPlayerID)
		if err != nil {
			return err
		}
		return a.reconciler.OnClaimApproved(ctx, result.Claim, player.Position, week)
	})

	for _, rejected := range result.RejectedClaims {
		claimID := rejected.ID
		teamID := rejected.TeamID
		a.fx.Run(ctx, "lineup.release_provisional", func(ctx context.Context) error {
			return a.reconciler.ReleaseProvisionalSlot(ctx, claimID)
		})
		a.fx.Run(ctx, "notify.claim_rejected", func(ctx context.Context) error {
			return a.notifier.Notify(ctx, teamID, events.TypeWaiverClaimRejected, map[string]string{
				"claim_id": claimID.String(),
				"reason":   models.RejectionReasonSuperseded,
			})
		})
	}

	a.fx.Run(ctx, "notify.claim_approved", func(ctx context.Context) error {
		return a.notifier.Notify(ctx, result.Claim.TeamID, events.TypeWaiverClaimApproved, map[string]string{
			"claim_id":       result.Claim.ID.String(),
			"transaction_id": result.TransactionID.String(),
		})
	})
}

func (a *App) validateSubmitClaimRequest(req SubmitClaimRequest) error {
	if req.TeamID == uuid.Nil {
		return fmt.Errorf("team_id is required")
	}
	if req.PickupPlayerID == uuid.Nil {
		return fmt.Errorf("pickup_player_id is required")
	}
	if req.Round != 1 && req.Round != 2 {
		return ErrInvalidRound
	}
	if req.DropPlayerID != nil && *req.DropPlayerID == req.PickupPlayerID {
		return fmt.Errorf("pickup and drop player must differ")
	}
	if req.Season <= 0 {
		return fmt.Errorf("season is required")
	}
	return nil
}
