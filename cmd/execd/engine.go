package main

import (
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/execdb"
	"main/internal/model"
)

const (
	addrEngine = bus.Address("engine")
)

// engine owns the execution database and is its single mutation path. It
// consumes routed commands from its mailbox, mutates the store and publishes
// the applied events as facts.
type engine struct {
	db      execdb.Database
	adapter *bus.Adapter
}

func newEngine(db execdb.Database, adapter *bus.Adapter) *engine {
	return &engine{db: db, adapter: adapter}
}

// handle is the engine mailbox handler. A failed command is logged, never
// fatal; the envelope is consumed either way.
func (e *engine) handle(env bus.Envelope) {
	if env.Message == nil {
		return
	}
	var err error
	switch msg := env.Message.(type) {
	case model.SubmitOrder:
		err = e.submitOrder(msg)
	case model.SubmitBracketOrder:
		err = e.submitBracketOrder(msg)
	case model.CancelOrder:
		err = e.cancelOrder(msg)
	case model.ModifyOrder:
		err = e.modifyOrder(msg)
	case model.AccountInquiry:
		err = e.accountInquiry(msg)
	default:
		err = errors.Errorf("unhandled command type %d", env.Message.Type())
	}
	if err != nil {
		logs.Errorf("engine command from %s failed, err: %+v", env.Sender, err)
	}
}

func (e *engine) submitOrder(cmd model.SubmitOrder) error {
	if cmd.Order == nil {
		return errors.New("submit command carries no order")
	}
	if err := e.db.AddOrder(cmd.Order); err != nil {
		return errors.Wrap(err, "add order")
	}
	return e.publishOrderEvent(cmd.Order.LastEvent())
}

func (e *engine) submitBracketOrder(cmd model.SubmitBracketOrder) error {
	if err := e.db.AddBracketOrder(cmd.Bracket); err != nil {
		return errors.Wrap(err, "add bracket order")
	}
	for _, o := range cmd.Bracket.Orders() {
		if err := e.publishOrderEvent(o.LastEvent()); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) cancelOrder(cmd model.CancelOrder) error {
	o := e.db.Order(cmd.OrderID)
	if o == nil {
		return errors.Errorf("cancel for unknown order %s", cmd.OrderID)
	}
	event := model.OrderEvent{
		Kind:      model.OrderEventCancelled,
		OrderID:   cmd.OrderID,
		TraderID:  cmd.TraderID,
		Reason:    cmd.Reason,
		Timestamp: cmd.Timestamp,
	}
	if err := o.Apply(event); err != nil {
		return errors.Wrap(err, "apply cancel")
	}
	if err := e.db.UpdateOrder(o); err != nil {
		return errors.Wrap(err, "update cancelled order")
	}
	return e.publishOrderEvent(event)
}

func (e *engine) modifyOrder(cmd model.ModifyOrder) error {
	o := e.db.Order(cmd.OrderID)
	if o == nil {
		return errors.Errorf("modify for unknown order %s", cmd.OrderID)
	}
	event := model.OrderEvent{
		Kind:      model.OrderEventModified,
		OrderID:   cmd.OrderID,
		TraderID:  cmd.TraderID,
		Price:     cmd.Price,
		Quantity:  cmd.Quantity,
		Timestamp: cmd.Timestamp,
	}
	if err := o.Apply(event); err != nil {
		return errors.Wrap(err, "apply modify")
	}
	if err := e.db.UpdateOrder(o); err != nil {
		return errors.Wrap(err, "update modified order")
	}
	return e.publishOrderEvent(event)
}

func (e *engine) accountInquiry(cmd model.AccountInquiry) error {
	a := e.db.Account(cmd.AccountID)
	if a == nil {
		return errors.Errorf("inquiry for unknown account %s", cmd.AccountID)
	}
	if err := e.adapter.Publish(addrEngine, model.AccountStateMessage{Event: a.LastEvent()}); err != nil {
		return errors.Wrap(err, "publish account state")
	}
	return nil
}

func (e *engine) publishOrderEvent(event model.OrderEvent) error {
	if err := e.adapter.Publish(addrEngine, model.OrderEventMessage{Event: event}); err != nil {
		return errors.Wrap(err, "publish order event")
	}
	return nil
}
