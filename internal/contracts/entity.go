package contracts

import "time"

// Status is an entity lifecycle flag.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDelisted  Status = "delisted"
)

// Cyclicality tags how exclusion rules treat an entity's profitability swings.
type Cyclicality string

const (
	Cyclical    Cyclicality = "cyclical"
	NonCyclical Cyclicality = "non_cyclical"
)

// Classification is a two-level industry code valid from a given date.
// Classification changes over time; resolution must be as-of a date.
type Classification struct {
	Level1 string    `json:"level1"`
	Level2 string    `json:"level2"`
	From   time.Time `json:"from"`
}

// Entity is a company or index in the screening universe.
type Entity struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Status      Status           `json:"status"`
	Flagged     bool             `json:"flagged"` // special-treatment / risk-flagged
	Cyclicality Cyclicality      `json:"cyclicality"`
	History     []Classification `json:"history"` // ordered by From ascending
}

// ClassificationAt resolves the entity's industry classification as of date.
// Returns the latest classification whose From is not after date; zero value
// if none applies yet.
func (e *Entity) ClassificationAt(date time.Time) Classification {
	var current Classification
	for _, c := range e.History {
		if c.From.After(date) {
			break
		}
		current = c
	}
	return current
}

// Tradable reports whether the entity can be held at all.
func (e *Entity) Tradable() bool {
	return e.Status == StatusActive
}
