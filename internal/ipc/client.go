package ipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/FocusWarden/internal/blocking"
	"github.com/SoarinFerret/FocusWarden/internal/session"
)

// Client calls the daemon's timer object.
type Client struct {
	obj dbus.BusObject
}

func NewClient(conn *dbus.Conn) *Client {
	return &Client{obj: conn.Object(ServiceName, dbus.ObjectPath(ObjectPath))}
}

func (c *Client) callStatus(ctx context.Context, method string, args ...interface{}) (session.Status, error) {
	var (
		running   bool
		remaining int32
		mode      string
		phase     int32
	)
	call := c.obj.CallWithContext(ctx, InterfaceName+"."+method, 0, args...)
	if call.Err != nil {
		return session.Status{}, fmt.Errorf("%s failed: %w", method, call.Err)
	}
	if err := call.Store(&running, &remaining, &mode, &phase); err != nil {
		return session.Status{}, fmt.Errorf("%s: unexpected reply: %w", method, err)
	}
	return DecodeStatus(running, remaining, mode, phase), nil
}

// Start runs the timer. An empty mode and seconds <= 0 mean no override.
func (c *Client) Start(ctx context.Context, mode session.Mode, seconds int) (session.Status, error) {
	if seconds < 0 {
		seconds = 0
	}
	return c.callStatus(ctx, "Start", string(mode), int32(seconds))
}

func (c *Client) Pause(ctx context.Context) (session.Status, error) {
	return c.callStatus(ctx, "Pause")
}

func (c *Client) Reset(ctx context.Context) (session.Status, error) {
	return c.callStatus(ctx, "Reset")
}

func (c *Client) State(ctx context.Context) (session.Status, error) {
	return c.callStatus(ctx, "GetState")
}

// Rules returns the rule set the daemon currently has applied.
func (c *Client) Rules(ctx context.Context) (blocking.RuleSet, error) {
	var raw string
	if err := c.obj.CallWithContext(ctx, InterfaceName+".GetRules", 0).Store(&raw); err != nil {
		return nil, fmt.Errorf("GetRules failed: %w", err)
	}
	var rules blocking.RuleSet
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return nil, fmt.Errorf("invalid rules payload: %w", err)
	}
	return rules, nil
}
