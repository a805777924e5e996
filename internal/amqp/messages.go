package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event names carried on the exchange.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
)

// LedgerEventMessage tells downstream consumers that a transaction
// changed. It carries ids only; the export worker fetches the current
// row from the database, so a stale message never exports stale data.
type LedgerEventMessage struct {
	Event         string    `json:"event"`
	TransactionID string    `json:"transaction_id"`
	BudgetID      string    `json:"budget_id"`
	CategoryID    string    `json:"category_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(event, transactionID, budgetID, categoryID string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:         event,
		TransactionID: transactionID,
		BudgetID:      budgetID,
		CategoryID:    categoryID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
