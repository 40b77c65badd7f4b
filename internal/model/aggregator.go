package model

// Aggregator defines the common interface for an aggregation engine,
// allowing different engine implementations to be used interchangeably.
type Aggregator interface {
	// Start launches the aggregator's processing workers.
	Start()

	// Stop gracefully shuts down the aggregator, ensuring all data is processed or flushed.
	Stop()

	// Input returns the channel to which events should be sent for processing.
	Input() chan<- *Event
}
