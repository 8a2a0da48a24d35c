// Package component ties the framework together on the serving side: a
// component owns exactly one event dispatcher and the stubs that serve its
// interfaces. Starting a component starts its dispatcher and registers every
// stub's event consumer; stopping cancels pending work and unregisters in
// reverse order.
package component

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/servicebus/dispatch"
	"github.com/c360/servicebus/errors"
	"github.com/c360/servicebus/stub"
)

// State represents the current lifecycle state of a component
type State int

const (
	// StateCreated indicates the component was created but not started
	StateCreated State = iota
	// StateStarted indicates the component is running
	StateStarted
	// StateStopped indicates the component was stopped
	StateStopped
	// StateFailed indicates the component failed during a lifecycle operation
	StateFailed
)

// String returns a string representation of the component state
func (cs State) String() string {
	switch cs {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Component hosts service stubs on one dispatcher goroutine.
type Component struct {
	name       string
	dispatcher *dispatch.EventDispatcher
	stubs      []*stub.Stub
	logger     *slog.Logger
	state      State
}

// New creates a component with its own dispatcher thread named after the
// component.
func New(name string, logger *slog.Logger) *Component {
	if logger == nil {
		logger = slog.Default()
	}
	return &Component{
		name:       name,
		dispatcher: dispatch.NewEventDispatcher(name, logger),
		logger:     logger,
		state:      StateCreated,
	}
}

// Name returns the component name, which is also its dispatcher thread name
// used in stub addresses.
func (c *Component) Name() string { return c.name }

// Dispatcher returns the component's event dispatcher. Stubs use it as
// their Sender for local delivery, and proxies post request events to it.
func (c *Component) Dispatcher() *dispatch.EventDispatcher { return c.dispatcher }

// State returns the component's lifecycle state.
func (c *Component) State() State { return c.state }

// AddStub attaches a stub created for this component's thread. Stubs must
// be added before Start.
func (c *Component) AddStub(s *stub.Stub) error {
	if s == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Component", "AddStub", "stub validation")
	}
	if c.state != StateCreated {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Component", "AddStub", "lifecycle state check")
	}
	c.stubs = append(c.stubs, s)
	return nil
}

// Start launches the dispatcher and registers every stub's event consumer.
func (c *Component) Start(ctx context.Context) error {
	if c.state == StateStarted {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Component", "Start", "already started check")
	}

	if err := c.dispatcher.Start(ctx); err != nil {
		c.state = StateFailed
		return errors.Wrap(err, "Component", "Start", "dispatcher start")
	}

	for i, s := range c.stubs {
		if err := s.Startup(c.dispatcher); err != nil {
			// Roll back the stubs already started.
			for j := i - 1; j >= 0; j-- {
				c.stubs[j].Shutdown(c.dispatcher)
			}
			_ = c.dispatcher.Stop(time.Second)
			c.state = StateFailed
			return errors.Wrap(err, "Component", "Start", "stub startup")
		}
	}

	c.state = StateStarted
	c.logger.Info("component started", "component", c.name, "stubs", len(c.stubs))
	return nil
}

// Stop shuts stubs down in reverse start order, then stops the dispatcher.
func (c *Component) Stop(timeout time.Duration) error {
	if c.state != StateStarted {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Component", "Stop", "lifecycle state check")
	}

	for i := len(c.stubs) - 1; i >= 0; i-- {
		c.stubs[i].Shutdown(c.dispatcher)
	}

	if err := c.dispatcher.Stop(timeout); err != nil {
		c.state = StateFailed
		return errors.Wrap(err, "Component", "Stop", "dispatcher stop")
	}

	c.state = StateStopped
	c.logger.Info("component stopped", "component", c.name)
	return nil
}
