package persistence

// Persistence bundles the stores used by the statistics collector so it can
// depend on a single abstraction.
type Persistence struct {
	Records RecordStore
	Events  EventStore
}

// NewInMemory returns in-memory stores for both records and events.
func NewInMemory() Persistence {
	return Persistence{
		Records: NewInMemoryStore(),
		Events:  NewInMemoryEventStore(),
	}
}
