package system

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"single_sensor/internal/config"
)

const (
	logindDest   = "org.freedesktop.login1"
	logindPath   = dbus.ObjectPath("/org/freedesktop/login1")
	logindReboot = "org.freedesktop.login1.Manager.Reboot"
)

var ErrRebootDisabled = errors.New("reboot is disabled")

// Rebooter restarts the device.
type Rebooter interface {
	Reboot(ctx context.Context) error
}

// busConn is the part of *dbus.Conn the rebooter needs.
type busConn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	Close() error
}

// LogindRebooter asks systemd-logind for a reboot over the system bus. The
// service account needs the org.freedesktop.login1.reboot polkit permission.
type LogindRebooter struct {
	connect func() (busConn, error)
}

func NewLogindRebooter() *LogindRebooter {
	return &LogindRebooter{connect: func() (busConn, error) {
		return dbus.ConnectSystemBus()
	}}
}

func (r *LogindRebooter) Reboot(ctx context.Context) error {
	conn, err := r.connect()
	if err != nil {
		return fmt.Errorf("connect system bus: %w", err)
	}
	defer conn.Close()

	// interactive=false: fail instead of prompting for authentication
	call := conn.Object(logindDest, logindPath).CallWithContext(ctx, logindReboot, 0, false)
	if call.Err != nil {
		return fmt.Errorf("logind reboot: %w", call.Err)
	}
	return nil
}

// DisabledRebooter refuses every request. Used on development machines.
type DisabledRebooter struct{}

func (DisabledRebooter) Reboot(context.Context) error { return ErrRebootDisabled }

// NewRebooter picks the implementation for the configured reboot mode.
func NewRebooter(mode string) (Rebooter, error) {
	switch mode {
	case config.RebootModeLogind:
		return NewLogindRebooter(), nil
	case config.RebootModeDisabled:
		return DisabledRebooter{}, nil
	default:
		return nil, fmt.Errorf("unknown reboot mode %q", mode)
	}
}
