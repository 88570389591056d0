package discovery

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"time"
)

// pollInterval bounds how long a blocked read can delay shutdown.
const pollInterval = 500 * time.Millisecond

// Responder answers discovery requests on an already-bound datagram
// socket. It keeps no per-requester state: every datagram is matched
// against the request token and either answered or silently dropped.
// It runs supervised, fully decoupled from chat traffic.
type Responder struct {
	log        *slog.Logger
	conn       net.PacketConn
	advertised string // chat host:port sent back to requesters
}

// NewResponder takes ownership of reading from conn; the caller keeps
// ownership of closing it.
func NewResponder(log *slog.Logger, conn net.PacketConn, advertised string) *Responder {
	return &Responder{log: log, conn: conn, advertised: advertised}
}

func (r *Responder) Run(ctx context.Context) error {
	r.log.Info("Discovery responder listening",
		"addr", r.conn.LocalAddr().String(), "advertised", r.advertised)

	buf := make([]byte, 128)
	for {
		if ctx.Err() != nil {
			return nil
		}

		_ = r.conn.SetReadDeadline(time.Now().Add(pollInterval))
		n, src, err := r.conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if !bytes.Equal(buf[:n], RequestToken) {
			continue
		}

		if _, err := r.conn.WriteTo(EncodeResponse(r.advertised), src); err != nil {
			// Best effort: the requester will time out and fall back.
			r.log.Warn("Discovery reply failed", "peer", src.String(), "error", err)
		} else {
			r.log.Debug("Answered discovery request", "peer", src.String())
		}
	}
}
