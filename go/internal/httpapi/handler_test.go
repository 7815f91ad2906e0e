package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/trade"
	"github.com/gbrfl/league/go/internal/waiver"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown trade", trade.ErrTradeNotFound, http.StatusNotFound},
		{"unknown claim", waiver.ErrClaimNotFound, http.StatusNotFound},
		{"claim already resolved", waiver.ErrClaimNotPending, http.StatusConflict},
		{"player taken mid-resolution", fmt.Errorf("%w: player x", waiver.ErrPlayerNoLongerAvailable), http.StatusConflict},
		{
			"ownership drift at execution",
			&trade.PlayerNotOwnedError{TeamID: uuid.New(), PlayerID: uuid.New()},
			http.StatusConflict,
		},
		{
			"stale trade state",
			&trade.StaleTradeStateError{TradeID: uuid.New(), Expected: models.TradeStatusAccepted, Actual: models.TradeStatusCompleted},
			http.StatusConflict,
		},
		{"wrong team cancelling", waiver.ErrNotClaimOwner, http.StatusForbidden},
		{"non-participant rejecting", trade.ErrNotTradeParticipant, http.StatusForbidden},
		{
			"overflow needs drop selection",
			&trade.MustSelectDropsError{TeamID: uuid.New(), PlayersToDrop: 1},
			http.StatusUnprocessableEntity,
		},
		{"bad waiver round", waiver.ErrInvalidRound, http.StatusBadRequest},
		{"self trade", trade.ErrSelfTrade, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestWriteErrorDetail(t *testing.T) {
	t.Run("roster full carries the counts", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeError(rec, &waiver.RosterFullError{TeamID: uuid.New(), RosterSize: 19, PendingNoDropBids: 1})

		require.Equal(t, http.StatusConflict, rec.Code)
		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		detail, ok := body.Detail.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(19), detail["roster_size"])
		assert.Equal(t, float64(1), detail["pending_no_drop_bids"])
	})

	t.Run("unexpected errors are masked", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeError(rec, assert.AnError)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "internal error", body.Error)
	})
}
