package bus

import (
	"sync"

	"github.com/yanun0323/errors"
)

// Category partitions messages across the three buses. The category of a
// concrete message type is fixed for its lifetime.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryCommand
	CategoryEvent
	CategoryDocument
)

func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "command"
	case CategoryEvent:
		return "event"
	case CategoryDocument:
		return "document"
	default:
		return "unknown"
	}
}

// MessageType is a stable token assigned once at message definition, so
// dispatch never inspects runtime types.
type MessageType uint16

// Reserved tokens for category-wide subscriptions.
const (
	TypeAnyCommand MessageType = iota + 1
	TypeAnyEvent
	TypeAnyDocument
)

// TypeUserBase is the first token available to message definitions.
const TypeUserBase MessageType = 16

// Message is the unit routed by the buses.
type Message interface {
	Category() Category
	Type() MessageType
}

type typeInfo struct {
	category Category
	name     string
}

var typeRegistry = struct {
	sync.RWMutex
	types map[MessageType]typeInfo
}{
	types: map[MessageType]typeInfo{
		TypeAnyCommand:  {CategoryCommand, "AnyCommand"},
		TypeAnyEvent:    {CategoryEvent, "AnyEvent"},
		TypeAnyDocument: {CategoryDocument, "AnyDocument"},
	},
}

// RegisterType records the category and name of a message type token.
func RegisterType(t MessageType, c Category, name string) error {
	if t < TypeUserBase {
		return errors.Errorf("message type token %d is reserved", t)
	}
	if c == CategoryUnknown || c > CategoryDocument {
		return errors.Errorf("invalid category for message type %s", name)
	}
	typeRegistry.Lock()
	defer typeRegistry.Unlock()
	if existing, ok := typeRegistry.types[t]; ok {
		return errors.Errorf("message type token %d already registered as %s", t, existing.name)
	}
	typeRegistry.types[t] = typeInfo{category: c, name: name}
	return nil
}

// MustRegisterType registers a token and panics on failure, for init use.
func MustRegisterType(t MessageType, c Category, name string) MessageType {
	if err := RegisterType(t, c, name); err != nil {
		panic(err)
	}
	return t
}

// TypeCategory reports the registered category of a token.
func TypeCategory(t MessageType) (Category, bool) {
	typeRegistry.RLock()
	defer typeRegistry.RUnlock()
	info, ok := typeRegistry.types[t]
	return info.category, ok
}

// TypeName returns the registered name of a token.
func TypeName(t MessageType) string {
	typeRegistry.RLock()
	defer typeRegistry.RUnlock()
	info, ok := typeRegistry.types[t]
	if !ok {
		return "unregistered"
	}
	return info.name
}

func baseToken(c Category) MessageType {
	switch c {
	case CategoryCommand:
		return TypeAnyCommand
	case CategoryEvent:
		return TypeAnyEvent
	case CategoryDocument:
		return TypeAnyDocument
	default:
		return 0
	}
}
