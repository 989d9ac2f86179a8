package core

import "errors"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	Disconnect
)

// Policy decides what a room does with a connection whose Send failed.
type Policy interface {
	OnSendFailure(role Role, err error) BackpressureAction
}

// SimplePolicy disconnects clients that cannot keep up. Other failures mean the
// transport is already going away and its own teardown will dispose the entity.
type SimplePolicy struct{}

func (SimplePolicy) OnSendFailure(_ Role, err error) BackpressureAction {
	if errors.Is(err, ErrBackpressure) {
		return Disconnect
	}
	return NoAction
}
