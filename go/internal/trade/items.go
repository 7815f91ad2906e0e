package trade

import (
	"encoding/json"
	"fmt"

	"github.com/gbrfl/league/go/internal/models"
)

// encodeItem serializes one trade item variant to its storage payload. The
// item type is stored alongside the payload, not inside it.
func encodeItem(item models.TradeItem) (json.RawMessage, error) {
	payload, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s item: %w", item.ItemType(), err)
	}
	return payload, nil
}

// decodeItem reverses encodeItem using the stored type tag.
func decodeItem(itemType models.TradeItemType, payload json.RawMessage) (models.TradeItem, error) {
	switch itemType {
	case models.TradeItemTypePlayer:
		var item models.PlayerItem
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("failed to decode player item: %w", err)
		}
		return item, nil
	case models.TradeItemTypeDraftPick:
		var item models.DraftPickItem
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("failed to decode draft pick item: %w", err)
		}
		return item, nil
	case models.TradeItemTypeKeeperSlot:
		var item models.KeeperSlotItem
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("failed to decode keeper slot item: %w", err)
		}
		return item, nil
	case models.TradeItemTypeFreeAgentPick:
		var item models.FreeAgentPickItem
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("failed to decode free agent pick item: %w", err)
		}
		return item, nil
	}
	return nil, fmt.Errorf("unknown trade item type: %s", itemType)
}
