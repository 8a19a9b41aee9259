package scheduler

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Connectivity dials addr over TCP and then runs every check. An empty addr
// skips the dial.
func Connectivity(addr string, timeout time.Duration, checks ...func(context.Context) error) Probe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if addr != "" {
			var d net.Dialer
			conn, err := d.DialContext(ctx, "tcp", addr)
			if err != nil {
				return fmt.Errorf("dial %s: %w", addr, err)
			}
			conn.Close()
		}
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
