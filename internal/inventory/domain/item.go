package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Categories offered by the dashboard's category filter
var Categories = []string{
	"Traditional",
	"Bengali",
	"South Indian",
	"Dry Fruits",
	"Milk Based",
	"Other",
}

// Item is one sweet as last reported by the backend
type Item struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	UnitPrice      float64 `json:"price"`
	QuantityOnHand int     `json:"quantity"`
	Description    string  `json:"description,omitempty"`
}

// UnmarshalJSON accepts the id as a JSON number or as a numeric string.
func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, err := parseItemID(aux.ID)
	if err != nil {
		return err
	}
	i.ID = id
	return nil
}

func parseItemID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("item id %q is not numeric", s)
		}
		return id, nil
	}

	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("item id %s: %w", raw, err)
	}
	return id, nil
}

// ItemDraft stages create/edit input. Price and Quantity stay raw text until
// the workflow is committed.
type ItemDraft struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Quantity    string `json:"quantity"`
	Description string `json:"description"`
}

// DraftFromItem copies an item into an editable draft
func DraftFromItem(item Item) ItemDraft {
	return ItemDraft{
		Name:        item.Name,
		Category:    item.Category,
		Price:       strconv.FormatFloat(item.UnitPrice, 'f', -1, 64),
		Quantity:    strconv.Itoa(item.QuantityOnHand),
		Description: item.Description,
	}
}

// ItemInput is a validated draft in the shape the backend accepts for
// create and update.
type ItemInput struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description"`
}

// FilterCriteria narrows the listing. Blank strings and nil bounds are unconstrained.
type FilterCriteria struct {
	Name     string   `json:"name,omitempty"`
	Category string   `json:"category,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// Normalize trims the text fields and drops negative price bounds.
func (f FilterCriteria) Normalize() FilterCriteria {
	out := FilterCriteria{
		Name:     strings.TrimSpace(f.Name),
		Category: strings.TrimSpace(f.Category),
	}
	if f.MinPrice != nil && *f.MinPrice >= 0 {
		v := *f.MinPrice
		out.MinPrice = &v
	}
	if f.MaxPrice != nil && *f.MaxPrice >= 0 {
		v := *f.MaxPrice
		out.MaxPrice = &v
	}
	return out
}

// IsEmpty reports whether the criteria constrain nothing once normalized.
func (f FilterCriteria) IsEmpty() bool {
	n := f.Normalize()
	return n.Name == "" && n.Category == "" && n.MinPrice == nil && n.MaxPrice == nil
}
