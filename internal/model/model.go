package model

import "time"

// Event is a single keyed observation flowing through the engine. The key is
// opaque to the engine; the caller decides what it identifies (a word, a user
// id, a sensor name). Value carries the measurement, 1 for plain counting.
type Event struct {
	Key       string    `json:"key"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
