package storage

import "time"

// CreatedRecord is one target-store creation as the ledger remembers it.
type CreatedRecord struct {
	CreatedAt time.Time
	RunID     int64
	Kind      string // planet | character
	Name      string
	OdooID    int64
	SourceID  int64
}

// KindStats aggregates creations per entity kind.
type KindStats struct {
	Kind        string
	RecordCount int
	RunCount    int
}
