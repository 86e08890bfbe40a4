package provision

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Systemd is the subset of the systemd manager API the installer needs.
type Systemd interface {
	StopUnit(name string) error
	RestartUnit(name string) error
	EnableUnit(name string) error
	DaemonReload() error
	ActiveState(name string) (string, error)
	Close() error
}

// DBusSystemd talks to systemd over the system bus.
type DBusSystemd struct {
	conn *dbus.Conn
}

// NewDBusSystemd connects to the system bus
func NewDBusSystemd() (*DBusSystemd, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", err)
	}
	return &DBusSystemd{conn: conn}, nil
}

func (s *DBusSystemd) manager() dbus.BusObject {
	return s.conn.Object("org.freedesktop.systemd1", "/org/freedesktop/systemd1")
}

// StopUnit stops a unit, replacing any queued job
func (s *DBusSystemd) StopUnit(name string) error {
	call := s.manager().Call("org.freedesktop.systemd1.Manager.StopUnit", 0, name, "replace")
	if call.Err != nil {
		return fmt.Errorf("stop %s: %w", name, call.Err)
	}
	return nil
}

// RestartUnit restarts a unit, starting it if it is not running
func (s *DBusSystemd) RestartUnit(name string) error {
	call := s.manager().Call("org.freedesktop.systemd1.Manager.RestartUnit", 0, name, "replace")
	if call.Err != nil {
		return fmt.Errorf("restart %s: %w", name, call.Err)
	}
	return nil
}

// EnableUnit enables a unit persistently. Enabling an already-enabled
// unit is a no-op on the systemd side, which keeps reruns idempotent.
func (s *DBusSystemd) EnableUnit(name string) error {
	call := s.manager().Call("org.freedesktop.systemd1.Manager.EnableUnitFiles", 0, []string{name}, false, true)
	if call.Err != nil {
		return fmt.Errorf("enable %s: %w", name, call.Err)
	}
	return nil
}

// DaemonReload reloads the systemd manager configuration
func (s *DBusSystemd) DaemonReload() error {
	call := s.manager().Call("org.freedesktop.systemd1.Manager.Reload", 0)
	if call.Err != nil {
		return fmt.Errorf("daemon-reload: %w", call.Err)
	}
	return nil
}

// ActiveState returns the unit's ActiveState property (active, failed, ...)
func (s *DBusSystemd) ActiveState(name string) (string, error) {
	call := s.manager().Call("org.freedesktop.systemd1.Manager.GetUnit", 0, name)
	if call.Err != nil {
		return "", fmt.Errorf("get unit %s: %w", name, call.Err)
	}

	path, ok := call.Body[0].(dbus.ObjectPath)
	if !ok {
		return "", fmt.Errorf("unexpected unit path type")
	}

	obj := s.conn.Object("org.freedesktop.systemd1", path)
	variant, err := obj.GetProperty("org.freedesktop.systemd1.Unit.ActiveState")
	if err != nil {
		return "", err
	}

	state, _ := variant.Value().(string)
	return state, nil
}

// Close releases the bus connection
func (s *DBusSystemd) Close() error {
	return s.conn.Close()
}
