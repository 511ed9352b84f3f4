// Package repository provides the durable key-value primitives backing the
// execution database: member sets for indices, hash fields for 1:1 id
// mappings, append-only lists for per-aggregate event logs, and a
// full-keyspace flush. The database issues only these four shapes.
package repository

// Store is the durable backend contract.
type Store interface {
	// SetAdd adds a member to the set at key. Adding an existing member is
	// a no-op.
	SetAdd(key, member string) error
	// SetRemove removes a member from the set at key. Removing an absent
	// member is a no-op.
	SetRemove(key, member string) error
	// SetMembers returns the members of the set at key in lexical order.
	SetMembers(key string) ([]string, error)

	// HashSet stores a field/value pair under key, replacing any previous
	// value for the field.
	HashSet(key, field, value string) error
	// HashGet reads a field under key, reporting whether it was present.
	HashGet(key, field string) (string, bool, error)
	// HashGetAll returns all field/value pairs under key.
	HashGetAll(key string) (map[string]string, error)

	// ListPush appends a value to the list at key.
	ListPush(key string, value []byte) error
	// ListRange returns all values of the list at key in push order.
	ListRange(key string) ([][]byte, error)
	// ListLen returns the length of the list at key.
	ListLen(key string) (int, error)

	// Flush destructively wipes the whole keyspace.
	Flush() error
	// Close releases the backend.
	Close() error
}
