package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event actions.
const (
	ActionCreated = "created"
	ActionRemoved = "removed"
	ActionToggled = "toggled"
)

// LedgerEventMessage announces that one identity's expense changed. It is
// deliberately small: consumers fetch the current expense from the store by
// ID rather than trusting a snapshot that may already be stale.
type LedgerEventMessage struct {
	IdentityID string    `json:"identityId"`
	ExpenseID  string    `json:"expenseId"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(identityID, expenseID, action string) *LedgerEventMessage {
	return &LedgerEventMessage{
		IdentityID: identityID,
		ExpenseID:  expenseID,
		Action:     action,
		Timestamp:  time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
