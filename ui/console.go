// Package ui renders chat events on a terminal. It is a pure consumer
// of the client's event stream: the event kind decides the color, the
// core never embeds presentation.
package ui

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"wisp-chat/domain/event"
)

type Console struct {
	out  io.Writer
	self string // own display name, highlighted differently
}

func NewConsole(out io.Writer, self string) *Console {
	return &Console{out: out, self: self}
}

// Render prints one event. Unknown kinds are ignored so the UI keeps
// working when the protocol grows.
func (c *Console) Render(evt event.DomainEvent) {
	switch e := evt.(type) {
	case event.MessageBroadcast:
		sender := color.Cyan.Sprint(e.Sender)
		if e.Sender == c.self {
			sender = color.Green.Sprint(e.Sender)
		}
		fmt.Fprintf(c.out, "[%s] %s: %s\n",
			e.At.Local().Format(time.TimeOnly), sender, e.Content)

	case event.UserJoined:
		fmt.Fprintln(c.out, color.Yellow.Sprintf("* %s joined", e.Name))

	case event.UserLeft:
		fmt.Fprintln(c.out, color.Yellow.Sprintf("* %s left", e.Name))

	case event.RosterUpdate:
		c.renderRoster(e)

	case event.SessionError:
		fmt.Fprintln(c.out, color.Red.Sprintf("! %v", e.Err))
	}
}

func (c *Console) renderRoster(roster event.RosterUpdate) {
	fmt.Fprintln(c.out, color.Yellow.Sprintf("online now: %d", len(roster.Names)))

	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"#", "Name"})
	for i, name := range roster.Names {
		table.Append([]string{strconv.Itoa(i + 1), name})
	}
	table.Render()
}
