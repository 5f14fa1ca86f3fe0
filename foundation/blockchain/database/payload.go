package database

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Set of product lifecycle statuses.
const (
	StatusHarvested = "harvested"
	StatusProcessed = "processed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusSold      = "sold"
)

// Payload is the action specific data carried by a transaction. There is one
// concrete type per action.
type Payload interface {
	Action() Action
	copy() Payload
}

// CreateData is the payload for registering a new product.
type CreateData struct {
	Name           string         `json:"name"`
	Origin         string         `json:"origin"`
	BatchNumber    string         `json:"batchNumber"`
	HarvestDate    string         `json:"harvestDate"`
	Certifications []string       `json:"certifications,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Action implements the Payload interface.
func (CreateData) Action() Action { return ActionCreate }

func (d CreateData) copy() Payload {
	d.Certifications = slices.Clone(d.Certifications)
	d.Metadata = maps.Clone(d.Metadata)
	return d
}

// TransferData is the payload for handing a product to a new owner.
type TransferData struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=harvested processed shipped delivered sold"`
}

// Action implements the Payload interface.
func (TransferData) Action() Action { return ActionTransfer }

func (d TransferData) copy() Payload { return d }

// UpdateData is a patch over the descriptive fields of a product. Nil fields
// are left untouched and metadata keys are merged over the existing ones.
type UpdateData struct {
	Name        *string        `json:"name,omitempty"`
	Origin      *string        `json:"origin,omitempty"`
	BatchNumber *string        `json:"batchNumber,omitempty"`
	HarvestDate *string        `json:"harvestDate,omitempty"`
	Status      *string        `json:"status,omitempty" validate:"omitempty,oneof=harvested processed shipped delivered sold"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Action implements the Payload interface.
func (UpdateData) Action() Action { return ActionUpdate }

func (d UpdateData) copy() Payload {
	d.Name = clonePtr(d.Name)
	d.Origin = clonePtr(d.Origin)
	d.BatchNumber = clonePtr(d.BatchNumber)
	d.HarvestDate = clonePtr(d.HarvestDate)
	d.Status = clonePtr(d.Status)
	d.Metadata = maps.Clone(d.Metadata)
	return d
}

// VerifyData is the payload for attaching a certification to a product.
type VerifyData struct {
	Certification string `json:"certification"`
	Status        string `json:"status,omitempty" validate:"omitempty,oneof=harvested processed shipped delivered sold"`
}

// Action implements the Payload interface.
func (VerifyData) Action() Action { return ActionVerify }

func (d VerifyData) copy() Payload { return d }

// =============================================================================

// DecodePayload resolves the data field of a transaction into the concrete
// payload for the action. Missing data decodes to a nil payload so the
// transaction serializes back to the same bytes.
func DecodePayload(action Action, data json.RawMessage) (Payload, error) {
	if !action.IsValid() && action != "" {
		return nil, fmt.Errorf("unknown action %q", action)
	}

	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var (
		p   Payload
		err error
	)

	switch action {
	case ActionCreate:
		var d CreateData
		err = json.Unmarshal(data, &d)
		p = d

	case ActionTransfer:
		var d TransferData
		err = json.Unmarshal(data, &d)
		p = d

	case ActionUpdate:
		var d UpdateData
		err = json.Unmarshal(data, &d)
		p = d

	case ActionVerify:
		var d VerifyData
		err = json.Unmarshal(data, &d)
		p = d

	default:
		return nil, fmt.Errorf("data provided without an action")
	}

	if err != nil {
		return nil, fmt.Errorf("decoding %s data: %w", action, err)
	}

	return p, nil
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
