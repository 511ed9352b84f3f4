package model

import (
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
)

// Account is the execution core's view of one brokerage account. State is
// replaced wholesale by each account event.
type Account struct {
	id       AccountID
	currency string
	balance  decimal.Decimal
	margin   decimal.Decimal
	events   []AccountEvent
}

// NewAccount creates an account from its first state event.
func NewAccount(e AccountEvent) (*Account, error) {
	if e.AccountID == "" {
		return nil, errors.New("account id is empty")
	}
	return &Account{
		id:       e.AccountID,
		currency: e.Currency,
		balance:  e.Balance,
		margin:   e.Margin,
		events:   []AccountEvent{e},
	}, nil
}

// AccountFromEvents rebuilds an account by replaying its event log.
func AccountFromEvents(events []AccountEvent) (*Account, error) {
	if len(events) == 0 {
		return nil, ErrEmptyEventLog
	}
	a, err := NewAccount(events[0])
	if err != nil {
		return nil, err
	}
	for _, e := range events[1:] {
		if err := a.Apply(e); err != nil {
			return nil, errors.Wrap(err, "replay account events")
		}
	}
	return a, nil
}

func (a *Account) ID() AccountID            { return a.id }
func (a *Account) Currency() string         { return a.currency }
func (a *Account) Balance() decimal.Decimal { return a.balance }
func (a *Account) Margin() decimal.Decimal  { return a.margin }

// LastEvent returns the most recently applied event.
func (a *Account) LastEvent() AccountEvent { return a.events[len(a.events)-1] }

// EventCount returns the number of applied events.
func (a *Account) EventCount() int { return len(a.events) }

// Events returns a copy of the applied event log.
func (a *Account) Events() []AccountEvent {
	out := make([]AccountEvent, len(a.events))
	copy(out, a.events)
	return out
}

// Apply replaces the account state from an event.
func (a *Account) Apply(e AccountEvent) error {
	if e.AccountID != a.id {
		return ErrEventIDMismatch
	}
	if e.Currency != "" {
		a.currency = e.Currency
	}
	a.balance = e.Balance
	a.margin = e.Margin
	a.events = append(a.events, e)
	return nil
}
