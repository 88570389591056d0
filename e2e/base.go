package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"

	"wisp-chat/client"
	"wisp-chat/discovery"
	"wisp-chat/domain"
	"wisp-chat/domain/event"
	"wisp-chat/moderation"
	"wisp-chat/runtime"
	"wisp-chat/runtime/workers"
	"wisp-chat/server"
)

// BaseChatSuite boots the complete server stack (moderation pipeline,
// broadcaster, accept loop, discovery responder) on loopback once for
// the whole suite, unless CHAT_ADDR targets an external server.
type BaseChatSuite struct {
	suite.Suite
	Config        Config
	ChatAddr      string
	DiscoveryAddr string

	log    *slog.Logger
	cancel context.CancelFunc
}

func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	s.log = logs.GetLoggerFromLevel(slog.LevelDebug)

	if s.Config.ChatAddr != "" {
		s.ChatAddr = s.Config.ChatAddr
		return
	}
	s.startStack()
}

func (s *BaseChatSuite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *BaseChatSuite) startStack() {
	registry := runtime.NewRegistry()
	submitted := make(chan domain.Message, 64)
	accepted := make(chan event.DomainEvent, 64)

	words, _, err := moderation.LoadWordlists()
	s.Require().NoError(err)
	moderator, err := moderation.NewModerator(words, '*')
	s.Require().NoError(err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)

	chatServer := server.New(s.log, listener, registry, submitted, accepted, server.SessionConfig{
		BufferSize:       32,
		MaxContentLength: 512,
		WriteTimeout:     2 * time.Second,
		JoinTimeout:      2 * time.Second,
	})
	s.ChatAddr = chatServer.Addr()

	udpConn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	s.Require().NoError(err)
	s.DiscoveryAddr = udpConn.LocalAddr().String()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	sup := workers.NewSupervisor(s.log, 50*time.Millisecond)
	sup.Add(
		workers.NewModerationWorker(moderator, submitted, accepted, s.log),
		runtime.NewBroadcaster(s.log, registry, accepted),
		chatServer,
		discovery.NewResponder(s.log, udpConn, s.ChatAddr),
	)
	go sup.Run(ctx)
}

// WithClient joins the chat under the given name, runs the step, and
// leaves. The step shares the suite's colorized logging convention.
func (s *BaseChatSuite) WithClient(name string, fn func(ctx context.Context, session *client.Session)) {
	header := fmt.Sprintf("  ====== client %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := client.Connect(ctx, s.log, s.ChatAddr, name)
	s.Require().NoError(err, "Failed to join chat at "+s.ChatAddr)
	defer session.Leave()

	fn(ctx, session)
}

// AwaitEvent drains the session's event stream until the predicate
// accepts one, failing the test when the stream ends or time runs out.
func (s *BaseChatSuite) AwaitEvent(session *client.Session, accept func(event.DomainEvent) bool) event.DomainEvent {
	deadline := time.After(5 * time.Second)
	for {
		select {
		case evt, ok := <-session.Events():
			s.Require().True(ok, "event stream ended before the expected event")
			if accept(evt) {
				return evt
			}
		case <-deadline:
			s.Require().FailNow("timed out waiting for event")
			return nil
		}
	}
}
