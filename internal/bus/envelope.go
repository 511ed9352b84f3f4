package bus

import "time"

// Address names a logical component's mailbox. Addresses compare by value.
type Address string

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is unset. An envelope with a zero
// receiver is published to type subscribers instead of a single endpoint.
func (a Address) IsZero() bool { return a == "" }

// Envelope wraps a message with routing metadata. Envelopes are immutable
// once created.
type Envelope struct {
	Message   Message
	Sender    Address
	Receiver  Address
	Timestamp time.Time
}

// NewEnvelope builds an addressed or unaddressed envelope.
func NewEnvelope(msg Message, sender, receiver Address, ts time.Time) Envelope {
	return Envelope{
		Message:   msg,
		Sender:    sender,
		Receiver:  receiver,
		Timestamp: ts,
	}
}
