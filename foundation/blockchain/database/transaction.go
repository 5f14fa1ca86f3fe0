package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/agrochain/ledger/foundation/validate"
)

// Action represents the kind of state change a transaction asks for.
type Action string

// Set of actions a transaction can carry.
const (
	ActionCreate   Action = "create"
	ActionTransfer Action = "transfer"
	ActionUpdate   Action = "update"
	ActionVerify   Action = "verify"
)

// IsValid reports if the action is one of the known actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionTransfer, ActionUpdate, ActionVerify:
		return true
	}
	return false
}

// =============================================================================

// Tx is an intended change to a product. Once sealed into a block it's
// permanent history, whether or not it had any effect on product state.
type Tx struct {
	ID        string  `json:"id" validate:"required"`
	ProductID string  `json:"productId" validate:"required"`
	From      string  `json:"from" validate:"required"`
	To        string  `json:"to"`
	Action    Action  `json:"action" validate:"required,oneof=create transfer update verify"`
	Data      Payload `json:"data"`
	TimeStamp int64   `json:"timestamp"` // Unix milliseconds, set at submission when zero.
}

// NewTx constructs a transaction for the specified payload. The action is
// taken from the payload.
func NewTx(id string, productID string, from string, to string, data Payload) Tx {
	tx := Tx{
		ID:        id,
		ProductID: productID,
		From:      from,
		To:        to,
		Data:      data,
	}

	if data != nil {
		tx.Action = data.Action()
	}

	return tx
}

// Validate checks the required fields are present and the payload agrees
// with the action.
func (tx Tx) Validate() error {
	if err := validate.Check(tx); err != nil {
		return err
	}

	if tx.Data == nil {
		return nil
	}

	if tx.Data.Action() != tx.Action {
		return validate.NewFieldsError("data", fmt.Errorf("payload for %q doesn't match action %q", tx.Data.Action(), tx.Action))
	}

	if err := validate.Check(tx.Data); err != nil {
		return err
	}

	return nil
}

// Stamp sets the timestamp to now if it's not already set.
func (tx Tx) Stamp(now time.Time) Tx {
	if tx.TimeStamp == 0 {
		tx.TimeStamp = now.UnixMilli()
	}
	return tx
}

// Bytes implements the merkle Hashable interface by providing the
// serialized transaction.
func (tx Tx) Bytes() ([]byte, error) {
	return json.Marshal(tx)
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two transactions.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ID == otherTx.ID
}

// Copy returns a deep copy of the transaction.
func (tx Tx) Copy() Tx {
	if tx.Data != nil {
		tx.Data = tx.Data.copy()
	}
	return tx
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s:%s", tx.ID, tx.Action, tx.ProductID)
}

// =============================================================================

// txJSON is the wire form of a transaction. The data field is decoded
// according to the action.
type txJSON struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Action    Action          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
	TimeStamp int64           `json:"timestamp"`
}

// MarshalJSON implements the json.Marshaler interface.
func (tx Tx) MarshalJSON() ([]byte, error) {
	tj := txJSON{
		ID:        tx.ID,
		ProductID: tx.ProductID,
		From:      tx.From,
		To:        tx.To,
		Action:    tx.Action,
		TimeStamp: tx.TimeStamp,
	}

	if tx.Data != nil {
		data, err := json.Marshal(tx.Data)
		if err != nil {
			return nil, err
		}
		tj.Data = data
	}

	return json.Marshal(tj)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (tx *Tx) UnmarshalJSON(data []byte) error {
	var tj txJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return err
	}

	payload, err := DecodePayload(tj.Action, tj.Data)
	if err != nil {
		return fmt.Errorf("tx %q: %w", tj.ID, err)
	}

	*tx = Tx{
		ID:        tj.ID,
		ProductID: tj.ProductID,
		From:      tj.From,
		To:        tj.To,
		Action:    tj.Action,
		Data:      payload,
		TimeStamp: tj.TimeStamp,
	}

	return nil
}
