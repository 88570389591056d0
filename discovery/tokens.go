// Package discovery implements the broadcast bootstrap exchange: a
// client yells a fixed token on the LAN, the server answers with the
// address of its chat service. Best effort, stateless, at most once.
package discovery

import "bytes"

// The two tokens are a shared convention between client and server.
// Changing one side silently breaks discovery, so both live here.
var (
	RequestToken   = []byte("Is anyone there?")
	ResponsePrefix = []byte("WISPRES:")
)

// EncodeResponse builds the datagram advertising the chat address.
func EncodeResponse(addr string) []byte {
	return append(append([]byte{}, ResponsePrefix...), addr...)
}

// ParseResponse extracts the advertised address from a datagram, or
// reports that the datagram is not a discovery response at all.
func ParseResponse(datagram []byte) (string, bool) {
	if !bytes.HasPrefix(datagram, ResponsePrefix) {
		return "", false
	}
	addr := string(datagram[len(ResponsePrefix):])
	if addr == "" {
		return "", false
	}
	return addr, true
}
