package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"wisp-chat/errors"
)

// Locate performs one discovery attempt: send the request token to
// target (the broadcast address in production, loopback in tests) and
// wait up to timeout for a response carrying the server address.
//
// It never retries; the caller decides whether to fall back to an
// explicit address or give up.
func Locate(ctx context.Context, log *slog.Logger, target string, timeout time.Duration) (string, error) {
	raddr, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return "", fmt.Errorf("resolving discovery target %s: %w", target, err)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return "", fmt.Errorf("binding discovery socket: %w", err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.WriteTo(RequestToken, raddr); err != nil {
		return "", fmt.Errorf("sending discovery request: %w", err)
	}
	log.Debug("Discovery request sent", "target", target)

	buf := make([]byte, 128)
	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return "", errors.ErrDiscoveryTimeout
			}
			return "", fmt.Errorf("reading discovery response: %w", err)
		}

		addr, ok := ParseResponse(buf[:n])
		if !ok {
			// Foreign traffic on the discovery port, keep waiting.
			continue
		}
		log.Info("Server discovered", "addr", addr, "via", src.String())
		return addr, nil
	}
}
