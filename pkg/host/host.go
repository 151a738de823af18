// Package host describes the machine karton runs on.
package host

import (
	"fmt"
	"os"
	"os/user"
)

// System is the read-only view of the host used to seed image definitions.
type System interface {
	Username() string
	UserHome() string
	Hostname() string
}

// Static is a System with fixed values.
type Static struct {
	User string
	Home string
	Host string
}

// Username returns the configured user name.
func (s Static) Username() string { return s.User }

// UserHome returns the configured home directory.
func (s Static) UserHome() string { return s.Home }

// Hostname returns the configured host name.
func (s Static) Hostname() string { return s.Host }

// Detect looks up the current user and host name.
func Detect() (*Local, error) {
	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("failed to look up current user: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to look up host name: %w", err)
	}

	home := u.HomeDir
	if home == "" {
		if home, err = os.UserHomeDir(); err != nil {
			return nil, fmt.Errorf("failed to look up home directory: %w", err)
		}
	}

	return &Local{username: u.Username, home: home, hostname: hostname}, nil
}

// Local is the System karton is running on, captured once by Detect.
type Local struct {
	username string
	home     string
	hostname string
}

// Username returns the name of the user running karton.
func (l *Local) Username() string { return l.username }

// UserHome returns the home directory of the user running karton.
func (l *Local) UserHome() string { return l.home }

// Hostname returns the name of the machine.
func (l *Local) Hostname() string { return l.hostname }

// String describes the host for log messages.
func (l *Local) String() string {
	return fmt.Sprintf("host(username=%q, home=%q, hostname=%q)", l.username, l.home, l.hostname)
}
