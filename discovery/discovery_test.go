package discovery

import (
	"context"
	goerrors "errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"wisp-chat/errors"
)

func startResponder(t *testing.T, advertised string) string {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	responder := NewResponder(logs.GetLoggerFromLevel(slog.LevelDebug), conn, advertised)
	go func() { _ = responder.Run(ctx) }()

	return conn.LocalAddr().String()
}

func TestLocate_FindsServer(t *testing.T) {
	req := require.New(t)

	// Given a responder advertising the chat address
	target := startResponder(t, "192.0.2.7:32500")

	// When a client asks who is there
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	addr, err := Locate(context.Background(), log, target, 2*time.Second)

	// Then it learns the advertised address
	req.NoError(err)
	req.Equal("192.0.2.7:32500", addr)
}

func TestLocate_TimesOutWithoutServer(t *testing.T) {
	req := require.New(t)

	// Given nothing listens on the target port
	silent, err := net.ListenPacket("udp4", "127.0.0.1:0")
	req.NoError(err)
	target := silent.LocalAddr().String()
	req.NoError(silent.Close())

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	start := time.Now()
	_, err = Locate(context.Background(), log, target, 200*time.Millisecond)

	// Then the attempt fails with a timeout within bounded time
	req.True(goerrors.Is(err, errors.ErrDiscoveryTimeout))
	req.Less(time.Since(start), 2*time.Second)
}

func TestResponder_IgnoresForeignDatagrams(t *testing.T) {
	req := require.New(t)

	target := startResponder(t, "192.0.2.7:32500")
	raddr, err := net.ResolveUDPAddr("udp4", target)
	req.NoError(err)

	probe, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	req.NoError(err)
	defer probe.Close()

	// Given junk arrives on the discovery port first
	_, err = probe.WriteTo([]byte("what is this port"), raddr)
	req.NoError(err)

	// When the real token follows
	_, err = probe.WriteTo(RequestToken, raddr)
	req.NoError(err)

	// Then exactly one reply comes back, for the token
	req.NoError(probe.SetReadDeadline(time.Now().Add(2 * time.Second)))
	buf := make([]byte, 128)
	n, _, err := probe.ReadFrom(buf)
	req.NoError(err)
	addr, ok := ParseResponse(buf[:n])
	req.True(ok)
	req.Equal("192.0.2.7:32500", addr)

	// And nothing else follows for the junk datagram
	req.NoError(probe.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	_, _, err = probe.ReadFrom(buf)
	ne, isNetErr := err.(net.Error)
	req.True(isNetErr && ne.Timeout())
}

func TestParseResponse_RejectsEmptyAddress(t *testing.T) {
	req := require.New(t)

	_, ok := ParseResponse(ResponsePrefix)
	req.False(ok)

	_, ok = ParseResponse([]byte("unrelated"))
	req.False(ok)
}
