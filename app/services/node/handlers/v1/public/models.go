package public

import (
	"encoding/json"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/validate"
)

// newTx is the request body for submitting a transaction. The id and the
// product id of a create are assigned by the node when they are missing.
type newTx struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	From      string          `json:"from" validate:"required"`
	To        string          `json:"to"`
	Action    database.Action `json:"action" validate:"required,oneof=create transfer update verify"`
	Data      json.RawMessage `json:"data,omitempty"`
	TimeStamp int64           `json:"timestamp"`
}

// Validate checks the request is well formed.
func (ntx newTx) Validate() error {
	return validate.Check(ntx)
}

// toTx converts the request into a ledger transaction.
func (ntx newTx) toTx() (database.Tx, error) {
	data, err := database.DecodePayload(ntx.Action, ntx.Data)
	if err != nil {
		return database.Tx{}, validate.NewFieldsError("data", err)
	}

	tx := database.Tx{
		ID:        ntx.ID,
		ProductID: ntx.ProductID,
		From:      ntx.From,
		To:        ntx.To,
		Action:    ntx.Action,
		Data:      data,
		TimeStamp: ntx.TimeStamp,
	}

	return tx, nil
}

// submitted is the response to a queued transaction.
type submitted struct {
	Status      string      `json:"status"`
	Pending     int         `json:"pending"`
	Transaction database.Tx `json:"transaction"`
}

// historyEntry is a product transaction with the display names of the
// actors involved.
type historyEntry struct {
	Transaction database.Tx `json:"transaction"`
	FromName    string      `json:"fromName"`
	ToName      string      `json:"toName,omitempty"`
}

// validity is the response of a chain validation.
type validity struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

// mined is the response of a mining request.
type mined struct {
	Status string          `json:"status"`
	Block  *database.Block `json:"block,omitempty"`
}

// status is a plain status response.
type status struct {
	Status string `json:"status"`
}
