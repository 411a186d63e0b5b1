//go:build linux

package session

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// enableKeepAlive turns on TCP keep-alive and tunes the probe idle time
// via the socket's raw file descriptor. Per the session construction
// contract (§4.2), failure to set keep-alive is logged by the caller and
// is never fatal to session construction.
func enableKeepAlive(conn net.Conn, idle time.Duration) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tcpConn.SetKeepAlive(true); err != nil {
		return err
	}
	if idle <= 0 {
		return nil
	}

	raw, err := tcpConn.SyscallConn()
	if err != nil {
		return err
	}

	seconds := int(idle.Seconds())
	if seconds <= 0 {
		seconds = 1
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, seconds)
	})
	if err != nil {
		return err
	}
	return sockErr
}
