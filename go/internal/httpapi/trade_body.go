package httpapi

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/trade"
)

// tradeItemBody is the wire shape of one tagged-union trade item. Only the
// fields valid for the tagged type may be set.
type tradeItemBody struct {
	Type       models.TradeItemType `json:"type"`
	FromTeamID uuid.UUID            `json:"from_team_id"`
	ToTeamID   uuid.UUID            `json:"to_team_id"`
	PlayerID   *uuid.UUID           `json:"player_id,omitempty"`
	Season     *int                 `json:"season,omitempty"`
	Round      *int                 `json:"round,omitempty"`
	Slots      *int                 `json:"slots,omitempty"`
}

func (b tradeItemBody) toItem() (models.TradeItem, error) {
	switch b.Type {
	case models.TradeItemTypePlayer:
		if b.PlayerID == nil {
			return nil, fmt.Errorf("player item requires player_id")
		}
		return models.PlayerItem{FromTeamID: b.FromTeamID, ToTeamID: b.ToTeamID, PlayerID: *b.PlayerID}, nil
	case models.TradeItemTypeDraftPick:
		if b.Season == nil || b.Round == nil {
			return nil, fmt.Errorf("draft pick item requires season and round")
		}
		return models.DraftPickItem{FromTeamID: b.FromTeamID, ToTeamID: b.ToTeamID, Season: *b.Season, Round: *b.Round}, nil
	case models.TradeItemTypeKeeperSlot:
		if b.Slots == nil {
			return nil, fmt.Errorf("keeper slot item requires slots")
		}
		return models.KeeperSlotItem{FromTeamID: b.FromTeamID, ToTeamID: b.ToTeamID, Slots: *b.Slots}, nil
	case models.TradeItemTypeFreeAgentPick:
		if b.Season == nil || b.Round == nil {
			return nil, fmt.Errorf("free agent pick item requires season and round")
		}
		return models.FreeAgentPickItem{FromTeamID: b.FromTeamID, ToTeamID: b.ToTeamID, Season: *b.Season, Round: *b.Round}, nil
	}
	return nil, fmt.Errorf("unknown trade item type: %s", b.Type)
}

type proposeTradeBody struct {
	Season          int             `json:"season"`
	ProposingTeamID uuid.UUID       `json:"proposing_team_id"`
	TargetTeamID    uuid.UUID       `json:"target_team_id"`
	Items           []tradeItemBody `json:"items"`
	ProposingDrops  []uuid.UUID     `json:"proposing_drops,omitempty"`
}

func (b proposeTradeBody) toRequest() (trade.ProposeTradeRequest, error) {
	items := make([]models.TradeItem, 0, len(b.Items))
	for _, itemBody := range b.Items {
		item, err := itemBody.toItem()
		if err != nil {
			return trade.ProposeTradeRequest{}, err
		}
		items = append(items, item)
	}
	return trade.ProposeTradeRequest{
		Season:          b.Season,
		ProposingTeamID: b.ProposingTeamID,
		TargetTeamID:    b.TargetTeamID,
		Items:           items,
		ProposingDrops:  b.ProposingDrops,
	}, nil
}
