package database

import (
	"maps"
	"slices"
)

// Product is the current state of a tracked item, derived by replaying every
// mined transaction in chain order.
type Product struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Origin         string         `json:"origin"`
	Farmer         string         `json:"farmer"`
	CurrentOwner   string         `json:"currentOwner"`
	Status         string         `json:"status"`
	BatchNumber    string         `json:"batchNumber"`
	HarvestDate    string         `json:"harvestDate"`
	Certifications []string       `json:"certifications"`
	Metadata       map[string]any `json:"metadata"`
}

// Copy returns a deep copy of the product so callers can't reach into the
// projected state.
func (p Product) Copy() Product {
	p.Certifications = slices.Clone(p.Certifications)
	if p.Certifications == nil {
		p.Certifications = []string{}
	}
	p.Metadata = maps.Clone(p.Metadata)
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	return p
}

// =============================================================================

// applyTx folds a single transaction into the product table. Transactions
// that reference a missing product, or a transfer from someone other than
// the current owner, leave the table untouched. It reports whether the
// table changed.
func applyTx(products map[string]Product, tx Tx) bool {
	switch data := payloadFor(tx).(type) {
	case CreateData:
		products[tx.ProductID] = Product{
			ID:             tx.ProductID,
			Name:           data.Name,
			Origin:         data.Origin,
			Farmer:         tx.From,
			CurrentOwner:   tx.From,
			Status:         StatusHarvested,
			BatchNumber:    data.BatchNumber,
			HarvestDate:    data.HarvestDate,
			Certifications: slices.Clone(data.Certifications),
			Metadata:       maps.Clone(data.Metadata),
		}.Copy()
		return true

	case TransferData:
		prd, exists := products[tx.ProductID]
		if !exists || prd.CurrentOwner != tx.From {
			return false
		}
		prd.CurrentOwner = tx.To
		if data.Status != "" {
			prd.Status = data.Status
		}
		products[tx.ProductID] = prd
		return true

	case UpdateData:
		prd, exists := products[tx.ProductID]
		if !exists {
			return false
		}
		prd = prd.Copy()
		if data.Name != nil {
			prd.Name = *data.Name
		}
		if data.Origin != nil {
			prd.Origin = *data.Origin
		}
		if data.BatchNumber != nil {
			prd.BatchNumber = *data.BatchNumber
		}
		if data.HarvestDate != nil {
			prd.HarvestDate = *data.HarvestDate
		}
		if data.Status != nil {
			prd.Status = *data.Status
		}
		maps.Copy(prd.Metadata, data.Metadata)
		products[tx.ProductID] = prd
		return true

	case VerifyData:
		prd, exists := products[tx.ProductID]
		if !exists {
			return false
		}
		prd = prd.Copy()
		prd.Certifications = append(prd.Certifications, data.Certification)
		if data.Status != "" {
			prd.Status = data.Status
		}
		products[tx.ProductID] = prd
		return true
	}

	return false
}

// payloadFor returns the payload of the transaction, substituting the zero
// payload for the action when none was provided. A payload that disagrees
// with the action yields nil.
func payloadFor(tx Tx) Payload {
	if tx.Data != nil {
		if tx.Data.Action() != tx.Action {
			return nil
		}
		return tx.Data
	}

	switch tx.Action {
	case ActionCreate:
		return CreateData{}
	case ActionTransfer:
		return TransferData{}
	case ActionUpdate:
		return UpdateData{}
	case ActionVerify:
		return VerifyData{}
	}

	return nil
}
