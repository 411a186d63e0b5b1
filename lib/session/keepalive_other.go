//go:build !linux

package session

import (
	"net"
	"time"
)

// enableKeepAlive turns on TCP keep-alive. Idle-time tuning via a raw
// socket option is Linux-specific (TCP_KEEPIDLE vs. e.g. Darwin's
// TCP_KEEPALIVE constant); on other platforms this endpoint enables
// keep-alive with the OS default probe interval rather than maintaining
// a second syscall-level constant table. Per §4.2 this is logged and
// non-fatal either way.
func enableKeepAlive(conn net.Conn, _ time.Duration) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	return tcpConn.SetKeepAlive(true)
}
