// Package domain contains core concepts of the chat system.
// This file defines connected client identities and join validation.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Identity is a joined client as seen by the roster.
type Identity struct {
	Name string // display name, unique while the client is connected
	Addr string // remote endpoint, informational only
}

// JoinRequest is the first thing a client sends. The name rules are
// enforced here, before the registry is ever touched.
type JoinRequest struct {
	Name string `validate:"required,min=2,max=32,printascii,excludesall= "`
}

func ValidateJoin(req JoinRequest) error {
	return validate.Struct(req)
}
