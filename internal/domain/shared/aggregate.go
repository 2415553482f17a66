package shared

// BaseAggregateRoot is embedded by every entity that is persisted with
// optimistic locking. Repositories update a row only when the stored
// version is the one the aggregate was loaded with.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// NewBaseAggregateRoot starts a fresh aggregate at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// MarkChanged records a mutation: the offline change marker moves to now
// and the version is bumped so the next save is checked against it.
func (a *BaseAggregateRoot) MarkChanged() {
	a.Touch()
	a.Version++
}
