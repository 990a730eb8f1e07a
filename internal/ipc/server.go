package ipc

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Connect opens the system or session bus by name.
func Connect(bus string) (*dbus.Conn, error) {
	switch strings.ToLower(bus) {
	case "", "session", "user":
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to session bus: %w", err)
		}
		return conn, nil
	case "system":
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to system bus: %w", err)
		}
		return conn, nil
	}
	return nil, fmt.Errorf("unknown bus %q", bus)
}

// Export claims the service name and exports svc on the object path.
func Export(conn *dbus.Conn, svc *TimerService) error {
	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	if err := conn.Export(svc, dbus.ObjectPath(ObjectPath), InterfaceName); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}
	return nil
}
