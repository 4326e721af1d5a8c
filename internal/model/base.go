package model

import "time"

// Record is implemented by every table row: a unique immutable id plus
// created/updated stamps managed by the store.
type Record interface {
	GetID() string
	SetID(id string)
	Stamp(createdAt, updatedAt time.Time)
	Touch(updatedAt time.Time)
}

// Base carries the fields common to every stored record.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) GetID() string {
	return b.ID
}

func (b *Base) SetID(id string) {
	b.ID = id
}

func (b *Base) Stamp(createdAt, updatedAt time.Time) {
	b.CreatedAt = createdAt
	b.UpdatedAt = updatedAt
}

func (b *Base) Touch(updatedAt time.Time) {
	b.UpdatedAt = updatedAt
}

// Record status values shared by users, products, suppliers, categories.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
