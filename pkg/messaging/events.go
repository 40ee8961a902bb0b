package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventSweetCreated   = "sweetshop.sweet.created"
	EventSweetUpdated   = "sweetshop.sweet.updated"
	EventSweetDeleted   = "sweetshop.sweet.deleted"
	EventSweetPurchased = "sweetshop.sweet.purchased"
	EventSweetRestocked = "sweetshop.sweet.restocked"
)

// ExchangeSweetShopEvents is the topic exchange every client event goes to
const ExchangeSweetShopEvents = "sweetshop.events"

// Event is the envelope published on the exchange
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// SweetMutationEvent describes a mutation the backend accepted.
// ItemID is zero for creations, whose ID the client never learns.
type SweetMutationEvent struct {
	ItemID   int64   `json:"item_id,omitempty"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Quantity int     `json:"quantity,omitempty"`
	Message  string  `json:"message"`
	Actor    string  `json:"actor,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.NewString()
}
