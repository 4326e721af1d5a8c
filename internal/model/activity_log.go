package model

import "time"

type ActivityAction string

const (
	ActionInsert ActivityAction = "INSERT"
	ActionUpdate ActivityAction = "UPDATE"
	ActionDelete ActivityAction = "DELETE"
	ActionLogin  ActivityAction = "LOGIN"
	ActionLogout ActivityAction = "LOGOUT"
)

// ActivityLogEntry is one row of the bounded audit trail. Store mutations
// produce INSERT/UPDATE/DELETE entries; the session manager produces
// LOGIN/LOGOUT entries carrying the reason in Details. Entries are written
// once and only ever removed by FIFO eviction when the log exceeds its cap.
type ActivityLogEntry struct {
	ID        string         `json:"id"`
	Action    ActivityAction `json:"action"`
	TableName string         `json:"table_name,omitempty"`
	RecordID  string         `json:"record_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Username  string         `json:"username"`
	Details   string         `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Record implementation. Activity entries carry a single timestamp, so the
// created stamp lands on Timestamp and updates are meaningless.

func (e *ActivityLogEntry) GetID() string { return e.ID }

func (e *ActivityLogEntry) SetID(id string) { e.ID = id }

func (e *ActivityLogEntry) Stamp(createdAt, _ time.Time) { e.Timestamp = createdAt }

func (e *ActivityLogEntry) Touch(time.Time) {}
