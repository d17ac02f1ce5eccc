package storage

// ConflictResolution is the outcome of the insert-conflict policy.
type ConflictResolution int

const (
	// AcceptAsIdempotent means the existing row satisfies the insert: a
	// concurrent retry of the same workflow won the race.
	AcceptAsIdempotent ConflictResolution = iota
	// HardConflict means the existing row belongs to someone else, which
	// indicates id-space corruption rather than a benign retry.
	HardConflict
)

// ResolveInsertConflict decides how a unique-violation on an entity insert
// is treated. The minting workflows tolerate a duplicate row only when the
// row already in place is owned by the same wallet that attempted the
// insert.
func ResolveInsertConflict(existingOwner, attemptedOwner string) ConflictResolution {
	if existingOwner == attemptedOwner {
		return AcceptAsIdempotent
	}
	return HardConflict
}
