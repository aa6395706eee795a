package storage

import "poolLedger/internal/event"

// Journal defines a sink for raw log records.
type Journal interface {
	PutLogBatch(logs []event.LogRecord) error
}
