package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrMalformedMessage = fmt.Errorf("malformed message")
	ErrNameConflict     = fmt.Errorf("name already in use")
	ErrDiscoveryTimeout = fmt.Errorf("no server answered discovery")
	ErrSessionClosed    = fmt.Errorf("session closed")
)
