package waiver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbrfl/league/go/internal/events"
	"github.com/gbrfl/league/go/internal/ledger"
	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/roster"
	"github.com/gbrfl/league/go/internal/sideeffect"
)

const testSeason = 2026

type fakeClaimStore struct {
	claims map[uuid.UUID]*models.WaiverClaim
}

func newFakeClaimStore() *fakeClaimStore {
	return &fakeClaimStore{claims: make(map[uuid.UUID]*models.WaiverClaim)}
}

func (f *fakeClaimStore) CreateClaim(_ context.Context, req CreateClaimRequest) (*models.WaiverClaim, error) {
	claim := &models.WaiverClaim{
		ID:              uuid.New(),
		TeamID:          req.TeamID,
		Season:          req.Season,
		PickupPlayerID:  req.PickupPlayerID,
		DropPlayerID:    req.DropPlayerID,
		Round:           req.Round,
		SubmissionOrder: req.SubmissionOrder,
		Status:          models.WaiverClaimStatusPending,
		CreatedAt:       req.CreatedAt,
	}
	f.claims[claim.ID] = claim
	out := *claim
	return &out, nil
}

func (f *fakeClaimStore) GetClaim(_ context.Context, id uuid.UUID) (*models.WaiverClaim, error) {
	claim, ok := f.claims[id]
	if !ok {
		return nil, ErrClaimNotFound
	}
	out := *claim
	return &out, nil
}

func (f *fakeClaimStore) ListPendingByTeam(_ context.Context, teamID uuid.UUID, season int) ([]models.WaiverClaim, error) {
	var out []models.WaiverClaim
	for _, c := range f.claims {
		if c.TeamID == teamID && c.Season == season && c.Status == models.WaiverClaimStatusPending {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeClaimStore) CountPendingNoDrop(_ context.Context, teamID uuid.UUID, season int) (int, error) {
	count := 0
	for _, c := range f.claims {
		if c.TeamID == teamID && c.Season == season && c.Status == models.WaiverClaimStatusPending && c.DropPlayerID == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeClaimStore) ListPendingReferencing(_ context.Context, season int, pickupID uuid.UUID, dropID *uuid.UUID) ([]models.WaiverClaim, error) {
	var out []models.WaiverClaim
	for _, c := range f.claims {
		if c.Season != season || c.Status != models.WaiverClaimStatusPending {
			continue
		}
		match := c.PickupPlayerID == pickupID
		if dropID != nil {
			match = match || c.PickupPlayerID == *dropID ||
				(c.DropPlayerID != nil && *c.DropPlayerID == *dropID)
		}
		if match {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeClaimStore) SetSubmissionOrder(_ context.Context, claimID uuid.UUID, order int) error {
	claim, ok := f.claims[claimID]
	if !ok {
		return ErrClaimNotFound
	}
	claim.SubmissionOrder = order
	return nil
}

func (f *fakeClaimStore) MarkApproved(_ context.Context, claimID uuid.UUID, priority int, at time.Time) error {
	claim, ok := f.claims[claimID]
	if !ok || claim.Status != models.WaiverClaimStatusPending {
		return ErrClaimNotPending
	}
	claim.Status = models.WaiverClaimStatusApproved
	claim.ResolvedPriority = &priority
	claim.ResolvedAt = &at
	return nil
}

func (f *fakeClaimStore) MarkRejected(_ context.Context, claimID uuid.UUID, reason string, priority *int, at time.Time) error {
	claim, ok := f.claims[claimID]
	if !ok || claim.Status != models.WaiverClaimStatusPending {
		return ErrClaimNotPending
	}
	claim.Status = models.WaiverClaimStatusRejected
	claim.RejectionReason = &reason
	claim.ResolvedPriority = priority
	claim.ResolvedAt = &at
	return nil
}

type fakeRosterStore struct {
	entries map[uuid.UUID]*models.RosterEntry // keyed by player id
	locked  []uuid.UUID
	// addEntryErr simulates the insert failing despite a clean availability
	// read, as a concurrently committed ownership row would make it.
	addEntryErr error
}

func newFakeRosterStore() *fakeRosterStore {
	return &fakeRosterStore{entries: make(map[uuid.UUID]*models.RosterEntry)}
}

func (f *fakeRosterStore) roster(teamID, playerID uuid.UUID) {
	f.entries[playerID] = &models.RosterEntry{
		ID:              uuid.New(),
		TeamID:          teamID,
		PlayerID:        playerID,
		AcquisitionType: models.AcquisitionTypeDraft,
	}
}

func (f *fakeRosterStore) FindEntryByPlayer(_ context.Context, playerID uuid.UUID) (*models.RosterEntry, error) {
	entry, ok := f.entries[playerID]
	if !ok {
		return nil, nil
	}
	out := *entry
	return &out, nil
}

func (f *fakeRosterStore) GetEntry(_ context.Context, teamID, playerID uuid.UUID) (*models.RosterEntry, error) {
	entry, ok := f.entries[playerID]
	if !ok || entry.TeamID != teamID {
		return nil, roster.ErrEntryNotFound
	}
	out := *entry
	return &out, nil
}

func (f *fakeRosterStore) CountByTeam(_ context.Context, teamID uuid.UUID) (int, error) {
	count := 0
	for _, entry := range f.entries {
		if entry.TeamID == teamID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRosterStore) LockTeams(_ context.Context, teamIDs ...uuid.UUID) error {
	f.locked = append(f.locked, teamIDs...)
	return nil
}

func (f *fakeRosterStore) AddEntry(_ context.Context, req roster.AddEntryRequest) (*models.RosterEntry, error) {
	if f.addEntryErr != nil {
		return nil, f.addEntryErr
	}
	if _, ok := f.entries[req.PlayerID]; ok {
		return nil, roster.ErrPlayerOwned
	}
	entry := &models.RosterEntry{
		ID:              uuid.New(),
		TeamID:          req.TeamID,
		PlayerID:        req.PlayerID,
		AcquisitionType: req.AcquisitionType,
		AcquiredAt:      req.AcquiredAt,
		Keeper:          req.Keeper,
	}
	f.entries[req.PlayerID] = entry
	out := *entry
	return &out, nil
}

func (f *fakeRosterStore) RemoveEntryByPlayer(_ context.Context, teamID, playerID uuid.UUID) error {
	entry, ok := f.entries[playerID]
	if !ok || entry.TeamID != teamID {
		return roster.ErrEntryNotFound
	}
	delete(f.entries, playerID)
	return nil
}

type appendedRecord struct {
	txType models.TransactionType
	season int
	items  []ledger.ItemInput
}

type fakeLedgerStore struct {
	records []appendedRecord
	lastID  uuid.UUID
}

func (f *fakeLedgerStore) AppendRecord(_ context.Context, txType models.TransactionType, season int, _ time.Time, items []ledger.ItemInput) (uuid.UUID, error) {
	f.records = append(f.records, appendedRecord{txType: txType, season: season, items: items})
	f.lastID = uuid.New()
	return f.lastID, nil
}

type outboxEvent struct {
	aggregateID uuid.UUID
	eventType   string
	payload     json.RawMessage
}

type fakeOutboxStore struct {
	events []outboxEvent
}

func (f *fakeOutboxStore) InsertEvent(_ context.Context, aggregateID uuid.UUID, eventType string, payload json.RawMessage) error {
	f.events = append(f.events, outboxEvent{aggregateID: aggregateID, eventType: eventType, payload: payload})
	return nil
}

type fakeTxRunner struct {
	stores Stores
	// beforeTx, when set, runs once at the start of the next transaction,
	// standing in for work another connection commits first.
	beforeTx func()
}

func (f *fakeTxRunner) InTx(_ context.Context, fn func(s Stores) error) error {
	if f.beforeTx != nil {
		hook := f.beforeTx
		f.beforeTx = nil
		hook()
	}
	return fn(f.stores)
}

type fakeStandings struct {
	ranks map[uuid.UUID]int
	total int
}

func (f *fakeStandings) Rank(_ context.Context, _ int, teamID uuid.UUID) (int, int, error) {
	return f.ranks[teamID], f.total, nil
}

type fakePlayerDirectory struct {
	players map[uuid.UUID]*models.Player
}

func (f *fakePlayerDirectory) GetPlayer(_ context.Context, id uuid.UUID) (*models.Player, error) {
	player, ok := f.players[id]
	if !ok {
		return nil, roster.ErrEntryNotFound
	}
	return player, nil
}

func (f *fakePlayerDirectory) add(id uuid.UUID, position models.PositionCategory) {
	f.players[id] = &models.Player{ID: id, Position: position}
}

type fakeReconciler struct {
	reserved []uuid.UUID
	released []uuid.UUID
	approved []uuid.UUID
}

func (f *fakeReconciler) ReserveProvisionalSlot(_ context.Context, _, _ uuid.UUID, _ models.PositionCategory, _, _ int, claimID uuid.UUID) error {
	f.reserved = append(f.reserved, claimID)
	return nil
}

func (f *fakeReconciler) ReleaseProvisionalSlot(_ context.Context, claimID uuid.UUID) error {
	f.released = append(f.released, claimID)
	return nil
}

func (f *fakeReconciler) OnClaimApproved(_ context.Context, claim *models.WaiverClaim, _ models.PositionCategory, _ int) error {
	f.approved = append(f.approved, claim.ID)
	return nil
}

type notification struct {
	teamID uuid.UUID
	event  string
}

type fakeNotifier struct {
	sent []notification
}

func (f *fakeNotifier) Notify(_ context.Context, teamID uuid.UUID, event string, _ any) error {
	f.sent = append(f.sent, notification{teamID: teamID, event: event})
	return nil
}

type appFixture struct {
	app        *App
	claims     *fakeClaimStore
	roster     *fakeRosterStore
	ledger     *fakeLedgerStore
	outbox     *fakeOutboxStore
	standings  *fakeStandings
	players    *fakePlayerDirectory
	reconciler *fakeReconciler
	notifier   *fakeNotifier
	txr        *fakeTxRunner
	clock      *clockwork.FakeClock
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	fx := &appFixture{
		claims:     newFakeClaimStore(),
		roster:     newFakeRosterStore(),
		ledger:     &fakeLedgerStore{},
		outbox:     &fakeOutboxStore{},
		standings:  &fakeStandings{ranks: make(map[uuid.UUID]int), total: 10},
		players:    &fakePlayerDirectory{players: make(map[uuid.UUID]*models.Player)},
		reconciler: &fakeReconciler{},
		notifier:   &fakeNotifier{},
		clock:      clockwork.NewFakeClock(),
	}
	stores := Stores{Claims: fx.claims, Roster: fx.roster, Ledger: fx.ledger, Outbox: fx.outbox}
	fx.txr = &fakeTxRunner{stores: stores}
	fx.app = NewApp(stores, fx.txr, fx.standings, fx.players,
		fx.reconciler, fx.notifier, sideeffect.NewDispatcher(time.Second), fx.clock)
	return fx
}

func TestSubmitClaim(t *testing.T) {
	ctx := context.Background()
	teamA := uuid.New()
	teamB := uuid.New()

	t.Run("creates a pending claim and reserves a lineup slot", func(t *testing.T) {
		fx := newAppFixture(t)
		pickup := uuid.New()
		drop := uuid.New()
		fx.roster.roster(teamA, drop)
		fx.players.add(pickup, models.PositionRB)

		claim, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, Week: 4,
			PickupPlayerID: pickup, DropPlayerID: &drop, Round: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, models.WaiverClaimStatusPending, claim.Status)
		assert.Equal(t, 1, claim.SubmissionOrder)
		require.Len(t, fx.reconciler.reserved, 1)
		assert.Equal(t, claim.ID, fx.reconciler.reserved[0])
	})

	t.Run("submission order appends to the queue", func(t *testing.T) {
		fx := newAppFixture(t)
		first := uuid.New()
		second := uuid.New()
		fx.players.add(first, models.PositionWR)
		fx.players.add(second, models.PositionQB)
		drop1 := uuid.New()
		drop2 := uuid.New()
		fx.roster.roster(teamA, drop1)
		fx.roster.roster(teamA, drop2)

		c1, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: first, DropPlayerID: &drop1, Round: 1,
		})
		require.NoError(t, err)
		c2, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: second, DropPlayerID: &drop2, Round: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, c1.SubmissionOrder)
		assert.Equal(t, 2, c2.SubmissionOrder)
	})

	t.Run("rejects a pickup that is already rostered", func(t *testing.T) {
		fx := newAppFixture(t)
		pickup := uuid.New()
		fx.roster.roster(teamB, pickup)

		_, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, Round: 1,
		})
		require.ErrorIs(t, err, ErrPlayerAlreadyRostered)
		var rostered *PlayerRosteredError
		require.ErrorAs(t, err, &rostered)
		assert.Equal(t, teamB, rostered.OwnerTeamID)
	})

	t.Run("rejects a drop the team does not own", func(t *testing.T) {
		fx := newAppFixture(t)
		pickup := uuid.New()
		drop := uuid.New()
		fx.roster.roster(teamB, drop)

		_, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, DropPlayerID: &drop, Round: 1,
		})
		require.ErrorIs(t, err, ErrDropPlayerNotOwned)
	})

	t.Run("counts pending no-drop bids toward the roster limit", func(t *testing.T) {
		fx := newAppFixture(t)
		for i := 0; i < models.MaxRosterSize-1; i++ {
			fx.roster.roster(teamA, uuid.New())
		}
		open := uuid.New()
		fx.players.add(open, models.PositionTE)
		_, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: open, Round: 1,
		})
		require.NoError(t, err)

		// 20 rostered + 1 pending no-drop bid = limit reached.
		_, err = fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: uuid.New(), Round: 1,
		})
		require.ErrorIs(t, err, ErrRosterFull)
		var full *RosterFullError
		require.ErrorAs(t, err, &full)
		assert.Equal(t, models.MaxRosterSize-1, full.RosterSize)
		assert.Equal(t, 1, full.PendingNoDropBids)
	})

	t.Run("rejects an invalid round", func(t *testing.T) {
		fx := newAppFixture(t)
		_, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: uuid.New(), Round: 3,
		})
		require.ErrorIs(t, err, ErrInvalidRound)
	})
}

func TestReorderClaims(t *testing.T) {
	ctx := context.Background()
	teamA := uuid.New()

	submit := func(t *testing.T, fx *appFixture) *models.WaiverClaim {
		t.Helper()
		pickup := uuid.New()
		drop := uuid.New()
		fx.roster.roster(teamA, drop)
		fx.players.add(pickup, models.PositionRB)
		claim, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, DropPlayerID: &drop, Round: 1,
		})
		require.NoError(t, err)
		return claim
	}

	t.Run("renumbers the queue", func(t *testing.T) {
		fx := newAppFixture(t)
		c1 := submit(t, fx)
		c2 := submit(t, fx)
		c3 := submit(t, fx)

		err := fx.app.ReorderClaims(ctx, teamA, testSeason, []uuid.UUID{c3.ID, c1.ID, c2.ID})
		require.NoError(t, err)

		assert.Equal(t, 1, fx.claims.claims[c3.ID].SubmissionOrder)
		assert.Equal(t, 2, fx.claims.claims[c1.ID].SubmissionOrder)
		assert.Equal(t, 3, fx.claims.claims[c2.ID].SubmissionOrder)
	})

	t.Run("rejects a partial ordering", func(t *testing.T) {
		fx := newAppFixture(t)
		c1 := submit(t, fx)
		submit(t, fx)

		err := fx.app.ReorderClaims(ctx, teamA, testSeason, []uuid.UUID{c1.ID})
		require.Error(t, err)
	})

	t.Run("rejects foreign claim ids", func(t *testing.T) {
		fx := newAppFixture(t)
		c1 := submit(t, fx)
		submit(t, fx)

		err := fx.app.ReorderClaims(ctx, teamA, testSeason, []uuid.UUID{c1.ID, uuid.New()})
		require.Error(t, err)
	})
}

func TestCancelClaim(t *testing.T) {
	ctx := context.Background()
	teamA := uuid.New()
	teamB := uuid.New()

	fx := newAppFixture(t)
	pickup := uuid.New()
	drop := uuid.New()
	fx.roster.roster(teamA, drop)
	fx.players.add(pickup, models.PositionPK)
	claim, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
		TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, DropPlayerID: &drop, Round: 1,
	})
	require.NoError(t, err)

	t.Run("only the owner may cancel", func(t *testing.T) {
		err := fx.app.CancelClaim(ctx, claim.ID, teamB)
		require.ErrorIs(t, err, ErrNotClaimOwner)
	})

	t.Run("cancel keeps the claim for audit", func(t *testing.T) {
		require.NoError(t, fx.app.CancelClaim(ctx, claim.ID, teamA))

		stored := fx.claims.claims[claim.ID]
		assert.Equal(t, models.WaiverClaimStatusRejected, stored.Status)
		require.NotNil(t, stored.RejectionReason)
		assert.Equal(t, models.RejectionReasonOwnerCancelled, *stored.RejectionReason)
		assert.Contains(t, fx.reconciler.released, claim.ID)
	})

	t.Run("resolved claims cannot be cancelled again", func(t *testing.T) {
		err := fx.app.CancelClaim(ctx, claim.ID, teamA)
		require.ErrorIs(t, err, ErrClaimNotPending)
	})
}

func TestApproveClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("approval cascades, mutates the roster, and records the ledger", func(t *testing.T) {
		fx := newAppFixture(t)
		teamA := uuid.New() // rank 8 of 10 -> priority 3
		teamB := uuid.New() // rank 10 of 10 -> priority 1
		fx.standings.ranks[teamA] = 8
		fx.standings.ranks[teamB] = 10

		pickup := uuid.New()
		drop := uuid.New()
		fx.roster.roster(teamA, drop)
		fx.players.add(pickup, models.PositionWR)

		winner, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, DropPlayerID: &drop, Round: 1,
		})
		require.NoError(t, err)
		loser, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamB, Season: testSeason, PickupPlayerID: pickup, Round: 1,
		})
		require.NoError(t, err)

		result, err := fx.app.ApproveClaim(ctx, ApproveClaimRequest{ClaimID: winner.ID, AdminID: uuid.New(), Week: 5})
		require.NoError(t, err)

		assert.Equal(t, models.WaiverClaimStatusApproved, result.Claim.Status)
		assert.Equal(t, 3, result.Priority)
		require.Len(t, result.RejectedClaims, 1)
		assert.Equal(t, loser.ID, result.RejectedClaims[0].ID)
		require.NotNil(t, result.RejectedClaims[0].ResolvedPriority)
		assert.Equal(t, 1, *result.RejectedClaims[0].ResolvedPriority)

		// Roster: drop removed, pickup added as free agent acquisition.
		_, ok := fx.roster.entries[drop]
		assert.False(t, ok)
		entry := fx.roster.entries[pickup]
		require.NotNil(t, entry)
		assert.Equal(t, teamA, entry.TeamID)
		assert.Equal(t, models.AcquisitionTypeFreeAgent, entry.AcquisitionType)

		// Ledger: one WAIVER record, acquired + lost items.
		require.Len(t, fx.ledger.records, 1)
		record := fx.ledger.records[0]
		assert.Equal(t, models.TransactionTypeWaiver, record.txType)
		require.Len(t, record.items, 2)
		assert.Equal(t, models.TransactionAcquired, record.items[0].Direction)
		assert.Equal(t, models.TransactionLost, record.items[1].Direction)
		assert.Equal(t, fx.ledger.lastID, result.TransactionID)

		// Outbox: approved event plus one rejected event for the cascade.
		types := make([]string, 0, len(fx.outbox.events))
		for _, e := range fx.outbox.events {
			types = append(types, e.eventType)
		}
		assert.ElementsMatch(t, []string{events.TypeWaiverClaimApproved, events.TypeWaiverClaimRejected}, types)

		// Side effects: winner confirmed, loser's placeholder released.
		assert.Contains(t, fx.reconciler.approved, winner.ID)
		assert.Contains(t, fx.reconciler.released, loser.ID)

		// The claiming team's row was locked before the roster was read.
		assert.Equal(t, []uuid.UUID{teamA}, fx.roster.locked)
	})

	t.Run("fails when the player was taken in the meantime", func(t *testing.T) {
		fx := newAppFixture(t)
		teamA := uuid.New()
		teamB := uuid.New()
		fx.standings.ranks[teamA] = 5

		pickup := uuid.New()
		fx.players.add(pickup, models.PositionQB)
		claim, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, Round: 1,
		})
		require.NoError(t, err)

		fx.roster.roster(teamB, pickup)

		_, err = fx.app.ApproveClaim(ctx, ApproveClaimRequest{ClaimID: claim.ID, Week: 5})
		require.ErrorIs(t, err, ErrPlayerNoLongerAvailable)
		assert.Empty(t, fx.ledger.records)
		assert.Equal(t, models.WaiverClaimStatusPending, fx.claims.claims[claim.ID].Status)
	})

	t.Run("fails when the roster filled up before approval", func(t *testing.T) {
		fx := newAppFixture(t)
		teamA := uuid.New()
		fx.standings.ranks[teamA] = 5

		pickup := uuid.New()
		fx.players.add(pickup, models.PositionTE)
		claim, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, Round: 1,
		})
		require.NoError(t, err)

		for i := 0; i < models.MaxRosterSize; i++ {
			fx.roster.roster(teamA, uuid.New())
		}

		_, err = fx.app.ApproveClaim(ctx, ApproveClaimRequest{ClaimID: claim.ID, Week: 5})
		require.ErrorIs(t, err, ErrRosterFull)
	})

	t.Run("a conflicting ownership row surfaces as unavailable", func(t *testing.T) {
		fx := newAppFixture(t)
		teamA := uuid.New()
		fx.standings.ranks[teamA] = 5

		pickup := uuid.New()
		fx.players.add(pickup, models.PositionRB)
		claim, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, Round: 1,
		})
		require.NoError(t, err)

		// Another connection rosters the player between this transaction's
		// availability read and its insert.
		fx.roster.addEntryErr = roster.ErrPlayerOwned

		_, err = fx.app.ApproveClaim(ctx, ApproveClaimRequest{ClaimID: claim.ID, Week: 5})
		require.ErrorIs(t, err, ErrPlayerNoLongerAvailable)
		assert.Empty(t, fx.ledger.records)
	})

	t.Run("claims submitted mid-approval are rejected with a priority", func(t *testing.T) {
		fx := newAppFixture(t)
		teamA := uuid.New() // rank 8 of 10 -> priority 3
		teamC := uuid.New() // rank 9 of 10 -> priority 2
		fx.standings.ranks[teamA] = 8
		fx.standings.ranks[teamC] = 9

		pickup := uuid.New()
		fx.players.add(pickup, models.PositionWR)
		winner, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, Round: 1,
		})
		require.NoError(t, err)

		// A rival claim lands after the approval's standings snapshot but
		// before its transaction reads the pending set.
		fx.txr.beforeTx = func() {
			_, err := fx.claims.CreateClaim(ctx, CreateClaimRequest{
				TeamID: teamC, Season: testSeason, PickupPlayerID: pickup,
				Round: 1, SubmissionOrder: 1, CreatedAt: fx.clock.Now(),
			})
			require.NoError(t, err)
		}

		result, err := fx.app.ApproveClaim(ctx, ApproveClaimRequest{ClaimID: winner.ID, Week: 5})
		require.NoError(t, err)

		require.Len(t, result.RejectedClaims, 1)
		rejected := result.RejectedClaims[0]
		assert.Equal(t, teamC, rejected.TeamID)
		require.NotNil(t, rejected.ResolvedPriority)
		assert.Equal(t, 2, *rejected.ResolvedPriority)
	})

	t.Run("a resolved claim cannot be approved", func(t *testing.T) {
		fx := newAppFixture(t)
		teamA := uuid.New()
		fx.standings.ranks[teamA] = 5

		pickup := uuid.New()
		fx.players.add(pickup, models.PositionRB)
		claim, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
			TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, Round: 1,
		})
		require.NoError(t, err)
		require.NoError(t, fx.app.CancelClaim(ctx, claim.ID, teamA))

		_, err = fx.app.ApproveClaim(ctx, ApproveClaimRequest{ClaimID: claim.ID, Week: 5})
		require.ErrorIs(t, err, ErrClaimNotPending)
	})
}

func TestRejectClaim(t *testing.T) {
	ctx := context.Background()
	teamA := uuid.New()

	fx := newAppFixture(t)
	pickup := uuid.New()
	fx.players.add(pickup, models.PositionWR)
	claim, err := fx.app.SubmitClaim(ctx, SubmitClaimRequest{
		TeamID: teamA, Season: testSeason, PickupPlayerID: pickup, Round: 2,
	})
	require.NoError(t, err)

	reason := "player placed on injured reserve"
	require.NoError(t, fx.app.RejectClaim(ctx, RejectClaimRequest{ClaimID: claim.ID, AdminID: uuid.New(), Reason: &reason}))

	stored := fx.claims.claims[claim.ID]
	assert.Equal(t, models.WaiverClaimStatusRejected, stored.Status)
	require.NotNil(t, stored.RejectionReason)
	assert.Equal(t, reason, *stored.RejectionReason)
	assert.Nil(t, stored.ResolvedPriority)

	require.Len(t, fx.outbox.events, 1)
	assert.Equal(t, events.TypeWaiverClaimRejected, fx.outbox.events[0].eventType)
	assert.Contains(t, fx.reconciler.released, claim.ID)

	// Rejection never touches the roster or the ledger.
	assert.Empty(t, fx.ledger.records)

	err = fx.app.RejectClaim(ctx, RejectClaimRequest{ClaimID: claim.ID})
	require.ErrorIs(t, err, ErrClaimNotPending)
}
