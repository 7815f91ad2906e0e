package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gbrfl/league/go/internal/feed"
	"github.com/gbrfl/league/go/internal/ledger"
	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/player"
	"github.com/gbrfl/league/go/internal/roster"
	"github.com/gbrfl/league/go/internal/team"
	"github.com/gbrfl/league/go/internal/trade"
	"github.com/gbrfl/league/go/internal/waiver"
)

// Handler exposes the engine as a JSON HTTP API plus the feed WebSocket.
type Handler struct {
	waivers *waiver.App
	trades  *trade.App
	rosters *roster.App
	ledger  *ledger.App
	players *player.App
	teams   *team.App
	feed    *feed.ConnectionManager
}

func NewHandler(waivers *waiver.App, trades *trade.App, rosters *roster.App, ledgerApp *ledger.App, players *player.App, teams *team.App, feedManager *feed.ConnectionManager) *Handler {
	return &Handler{
		waivers: waivers,
		trades:  trades,
		rosters: rosters,
		ledger:  ledgerApp,
		players: players,
		teams:   teams,
		feed:    feedManager,
	}
}

// Register attaches all routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /waivers", h.submitClaim)
	mux.HandleFunc("POST /waivers/{id}/cancel", h.cancelClaim)
	mux.HandleFunc("POST /waivers/{id}/approve", h.approveClaim)
	mux.HandleFunc("POST /waivers/{id}/reject", h.rejectClaim)
	mux.HandleFunc("GET /teams/{teamID}/waivers", h.pendingQueue)
	mux.HandleFunc("PUT /teams/{teamID}/waivers/order", h.reorderClaims)

	mux.HandleFunc("POST /trades", h.proposeTrade)
	mux.HandleFunc("GET /trades/{id}", h.getTrade)
	mux.HandleFunc("POST /trades/{id}/accept", h.acceptTrade)
	mux.HandleFunc("POST /trades/{id}/reject", h.rejectTrade)
	mux.HandleFunc("POST /trades/{id}/execute", h.executeTrade)
	mux.HandleFunc("GET /teams/{teamID}/trades", h.listTrades)

	mux.HandleFunc("GET /teams/{teamID}/roster", h.getRoster)
	mux.HandleFunc("GET /teams/{teamID}/history", h.teamHistory)
	mux.HandleFunc("GET /transactions/{id}", h.getTransaction)

	mux.HandleFunc("GET /players/{id}", h.getPlayer)
	mux.HandleFunc("GET /players/{id}/owner", h.playerOwner)
	mux.HandleFunc("GET /players", h.listPlayers)

	mux.HandleFunc("POST /teams", h.createTeam)
	mux.HandleFunc("GET /teams", h.listTeams)
	mux.HandleFunc("GET /teams/{teamID}", h.getTeam)
	mux.HandleFunc("PUT /teams/{teamID}", h.updateTeam)

	mux.HandleFunc("GET /feed", h.feedSocket)
}

func (h *Handler) submitClaim(w http.ResponseWriter, r *http.Request) {
	var req waiver.SubmitClaimRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	claim, err := h.waivers.SubmitClaim(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, claim)
}

func (h *Handler) cancelClaim(w http.ResponseWriter, r *http.Request) {
	claimID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		TeamID uuid.UUID `json:"team_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.waivers.CancelClaim(r.Context(), claimID, body.TeamID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) approveClaim(w http.ResponseWriter, r *http.Request) {
	claimID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req waiver.ApproveClaimRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ClaimID = claimID
	result, err := h.waivers.ApproveClaim(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) rejectClaim(w http.ResponseWriter, r *http.Request) {
	claimID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req waiver.RejectClaimRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ClaimID = claimID
	if err := h.waivers.RejectClaim(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pendingQueue(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathUUID(w, r, "teamID")
	if !ok {
		return
	}
	claims, err := h.waivers.PendingQueue(r.Context(), teamID, querySeason(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func (h *Handler) reorderClaims(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathUUID(w, r, "teamID")
	if !ok {
		return
	}
	var body struct {
		Season   int         `json:"season"`
		ClaimIDs []uuid.UUID `json:"claim_ids"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.waivers.ReorderClaims(r.Context(), teamID, body.Season, body.ClaimIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) proposeTrade(w http.ResponseWriter, r *http.Request) {
	var body proposeTradeBody
	if !decodeJSON(w, r, &body) {
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	proposal, err := h.trades.ProposeTrade(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

func (h *Handler) getTrade(w http.ResponseWriter, r *http.Request) {
	tradeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	proposal, err := h.trades.GetTrade(r.Context(), tradeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (h *Handler) acceptTrade(w http.ResponseWriter, r *http.Request) {
	tradeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req trade.AcceptTradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TradeID = tradeID
	proposal, err := h.trades.AcceptTrade(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (h *Handler) rejectTrade(w http.ResponseWriter, r *http.Request) {
	tradeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req trade.RejectTradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TradeID = tradeID
	if err := h.trades.RejectTrade(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) executeTrade(w http.ResponseWriter, r *http.Request) {
	tradeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req trade.ExecuteTradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TradeID = tradeID
	result, err := h.trades.ExecuteTrade(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listTrades(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathUUID(w, r, "teamID")
	if !ok {
		return
	}
	var status *models.TradeStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.TradeStatus(s)
		status = &st
	}
	trades, err := h.trades.ListTrades(r.Context(), teamID, querySeason(r), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (h *Handler) getRoster(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathUUID(w, r, "teamID")
	if !ok {
		return
	}
	teamRoster, err := h.rosters.GetTeamRoster(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teamRoster)
}

func (h *Handler) teamHistory(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathUUID(w, r, "teamID")
	if !ok {
		return
	}
	records, err := h.ledger.TeamHistory(r.Context(), teamID, querySeason(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	recordID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	record, err := h.ledger.GetRecord(r.Context(), recordID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.players.GetPlayer(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// playerOwner reports which team currently rosters a player; team_id is null
// for free agents.
func (h *Handler) playerOwner(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	teamID, err := h.rosters.OwnerOf(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		PlayerID uuid.UUID  `json:"player_id"`
		TeamID   *uuid.UUID `json:"team_id"`
	}{PlayerID: playerID, TeamID: teamID})
}

func (h *Handler) listPlayers(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		players, err := h.players.SearchByName(r.Context(), q, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, players)
		return
	}
	position := models.PositionCategory(r.URL.Query().Get("position"))
	players, err := h.players.ListByPosition(r.Context(), position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (h *Handler) createTeam(w http.ResponseWriter, r *http.Request) {
	var req team.CreateTeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.teams.CreateTeam(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.ListTeams(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *Handler) getTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathUUID(w, r, "teamID")
	if !ok {
		return
	}
	t, err := h.teams.GetTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) updateTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathUUID(w, r, "teamID")
	if !ok {
		return
	}
	var req team.UpdateTeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.teams.UpdateTeam(r.Context(), teamID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) feedSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if err := h.feed.UpgradeConnection(w, r, userID); err != nil {
		log.Error().Err(err).Msg("failed to open feed connection")
	}
}

func querySeason(r *http.Request) int {
	season, _ := strconv.Atoi(r.URL.Query().Get("season"))
	return season
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

type errorBody struct {
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps engine errors onto HTTP statuses, carrying typed conflict
// details through to the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, waiver.ErrClaimNotFound),
		errors.Is(err, trade.ErrTradeNotFound),
		errors.Is(err, player.ErrPlayerNotFound),
		errors.Is(err, team.ErrTeamNotFound),
		errors.Is(err, roster.ErrEntryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, waiver.ErrPlayerAlreadyRostered),
		errors.Is(err, waiver.ErrPlayerNoLongerAvailable),
		errors.Is(err, waiver.ErrRosterFull),
		errors.Is(err, waiver.ErrClaimNotPending),
		errors.Is(err, trade.ErrStaleTradeState),
		errors.Is(err, trade.ErrPlayerNotOwned),
		errors.Is(err, trade.ErrRosterLimitExceeded):
		status = http.StatusConflict
	case errors.Is(err, waiver.ErrNotClaimOwner),
		errors.Is(err, trade.ErrNotTradeParticipant):
		status = http.StatusForbidden
	case errors.Is(err, trade.ErrMustSelectDrops):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, waiver.ErrDropPlayerNotOwned),
		errors.Is(err, waiver.ErrInvalidRound),
		errors.Is(err, trade.ErrSelfTrade),
		errors.Is(err, trade.ErrEmptyTrade),
		errors.Is(err, trade.ErrItemOutsideTrade),
		errors.Is(err, trade.ErrInsufficientSlots),
		errors.Is(err, trade.ErrInvalidPickSeason),
		errors.Is(err, trade.ErrInvalidPickRound),
		errors.Is(err, trade.ErrDropPlayerNotOwned),
		errors.Is(err, trade.ErrDropPlayerDeparting):
		status = http.StatusBadRequest
	}

	body := errorBody{Error: err.Error(), Detail: errorDetail(err)}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

// errorDetail extracts structured fields from the typed conflict errors so
// clients can react without parsing messages.
func errorDetail(err error) any {
	var rostered *waiver.PlayerRosteredError
	if errors.As(err, &rostered) {
		return map[string]any{
			"player_id":     rostered.PlayerID,
			"owner_team_id": rostered.OwnerTeamID,
		}
	}
	var full *waiver.RosterFullError
	if errors.As(err, &full) {
		return map[string]any{
			"team_id":              full.TeamID,
			"roster_size":          full.RosterSize,
			"pending_no_drop_bids": full.PendingNoDropBids,
		}
	}
	var mustDrop *trade.MustSelectDropsError
	if errors.As(err, &mustDrop) {
		return map[string]any{
			"team_id":         mustDrop.TeamID,
			"players_to_drop": mustDrop.PlayersToDrop,
		}
	}
	var limit *trade.RosterLimitError
	if errors.As(err, &limit) {
		return map[string]any{
			"team_id":         limit.TeamID,
			"players_to_drop": limit.PlayersToDrop,
		}
	}
	var stale *trade.StaleTradeStateError
	if errors.As(err, &stale) {
		return map[string]any{
			"trade_id": stale.TradeID,
			"expected": stale.Expected,
			"actual":   stale.Actual,
		}
	}
	return nil
}
