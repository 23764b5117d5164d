// Package conf holds the validated runtime configuration assembled from the
// command line.
package conf

import (
	"fmt"
	"net"
)

// DefaultLogDir is where per-run log files are written when file logging is on.
const DefaultLogDir = "logs"

// Config is the validated CLI surface of the application.
type Config struct {
	IP      string // IPv4 interface address to bind the send socket to
	Port    int    // UDP port used for both receiving and broadcasting
	FileLog bool   // write logs to a file under DefaultLogDir
	Verbose bool   // lower the log level to debug
}

// Validate checks that IP is a literal IPv4 address and Port is in range.
func (c *Config) Validate() error {
	ip := net.ParseIP(c.IP)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("invalid IPv4 address %q", c.IP)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	}
	return nil
}

// ListenAddr returns the receive-side address (wildcard bind on the chat port).
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}
