// Package drag owns the lifecycle of a single drag gesture: the session
// state machine, the optimistic board mutation, and the move command handed
// to the reconciliation gateway. It never touches the network itself.
package drag

import (
	"fmt"
	"time"

	"github.com/evielund/sitboard/internal/domain"
	"github.com/evielund/sitboard/internal/hittest"
)

// State is the controller's position in the gesture lifecycle.
type State int

const (
	StateIdle State = iota
	StateActive
	StateSettling
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateSettling:
		return "settling"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session describes the one card currently lifted. It exists from Start
// until the gesture settles or cancels.
type Session struct {
	ItemID    string
	Snapshot  domain.Item
	StartedAt time.Time
}

// Command is one move to dispatch to the reconciliation gateway.
type Command struct {
	ItemID    string
	ColumnKey string
	Position  int
}

// Controller drives a drag gesture from start to settle. It owns the board
// snapshot for the duration of the gesture and enforces the single-session
// rule: starting a drag while one is active is a host integration bug and
// panics rather than being silently absorbed.
type Controller struct {
	state   State
	board   domain.Board
	session Session
	clock   func() time.Time
}

// NewController constructs an idle controller. A nil clock defaults to
// time.Now.
func NewController(clock func() time.Time) *Controller {
	if clock == nil {
		clock = time.Now
	}
	return &Controller{clock: clock}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Board returns the controller's current snapshot. Only meaningful between
// Start and Settle; after Drop it carries the optimistic order.
func (c *Controller) Board() domain.Board {
	return c.board
}

// VisibleOrder returns the item ids of one column in the order the host
// should render while the gesture is in flight.
func (c *Controller) VisibleOrder(columnKey string) []string {
	return c.board.Order(columnKey)
}

// Session returns the active session, if any.
func (c *Controller) Session() (Session, bool) {
	if c.state == StateIdle {
		return Session{}, false
	}
	return c.session, true
}

// Start lifts an item and takes ownership of the board snapshot. An unknown
// item id is a runtime condition (the card may have been archived under us)
// and returns domain.ErrItemNotFound; a non-idle controller is a programming
// error and panics.
func (c *Controller) Start(board domain.Board, itemID string) (Session, error) {
	if c.state != StateIdle {
		panic(fmt.Sprintf("drag: Start while %s, session %q", c.state, c.session.ItemID))
	}
	item, ok := board.Item(itemID)
	if !ok {
		return Session{}, fmt.Errorf("start drag %q: %w", itemID, domain.ErrItemNotFound)
	}
	c.board = board
	c.session = Session{
		ItemID:    itemID,
		Snapshot:  item,
		StartedAt: c.clock().UTC(),
	}
	c.state = StateActive
	return c.session, nil
}

// Drop ends the gesture. A nil target, or a target that changes nothing,
// cancels: the controller returns to idle, the board is untouched, and ok is
// false so no command is dispatched. Otherwise the move is applied
// optimistically, the controller enters settling, and the returned command
// must be dispatched to the gateway followed by Settle.
func (c *Controller) Drop(target *hittest.Target) (domain.Board, Command, bool) {
	if c.state != StateActive {
		panic(fmt.Sprintf("drag: Drop while %s", c.state))
	}
	if target == nil {
		c.reset()
		return c.board, Command{}, false
	}
	position, changed := Position(c.board, c.session.ItemID, *target)
	if !changed {
		c.reset()
		return c.board, Command{}, false
	}

	c.board = c.board.ApplyMove(c.session.ItemID, target.ColumnKey, position)
	c.state = StateSettling
	return c.board, Command{
		ItemID:    c.session.ItemID,
		ColumnKey: target.ColumnKey,
		Position:  position,
	}, true
}

// Cancel abandons an active gesture with zero mutation.
func (c *Controller) Cancel() {
	if c.state != StateActive {
		panic(fmt.Sprintf("drag: Cancel while %s", c.state))
	}
	c.reset()
}

// Settle completes the gesture once the gateway answered, success or
// failure alike. The caller owns the follow-up canonical refresh; the
// optimistic order is never trusted past this point.
func (c *Controller) Settle() {
	if c.state != StateSettling {
		panic(fmt.Sprintf("drag: Settle while %s", c.state))
	}
	c.reset()
}

// reset discards the session and returns to idle.
func (c *Controller) reset() {
	c.session = Session{}
	c.state = StateIdle
}
