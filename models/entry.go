package models

import (
	"fmt"
	"time"
)

// Kind tells intake entries (meals) and exertion entries (exercises) apart.
// Both share one shape and live in their own table.
type Kind string

const (
	Intake   Kind = "intake"
	Exertion Kind = "exertion"
)

// Kinds lists every entry kind in display order.
var Kinds = []Kind{Intake, Exertion}

// Table is the SQL table holding entries of this kind.
func (k Kind) Table() string {
	switch k {
	case Intake:
		return "intake_entries"
	case Exertion:
		return "exertion_entries"
	}
	panic(fmt.Sprintf("models: unknown entry kind %q", string(k)))
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == Intake || k == Exertion
}

type Entry struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	UserID     string    `json:"userId"`
	Label      string    `json:"label"`
	Calories   int       `json:"calories"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EntryInput is a validated label/calories/time triple ready to persist.
type EntryInput struct {
	Label      string
	Calories   int
	OccurredAt time.Time
}
