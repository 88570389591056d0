package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"wisp-chat/discovery"
	"wisp-chat/domain"
	"wisp-chat/domain/event"
	"wisp-chat/moderation"
	"wisp-chat/runtime"
	"wisp-chat/runtime/workers"
	"wisp-chat/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	censorChar, err := CharacterRune(config.CensorReplacement)
	if err != nil {
		return err
	}

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Shared state and the chat pipeline
	registry := runtime.NewRegistry()
	submitted := make(chan domain.Message, config.BufferSize)
	accepted := make(chan event.DomainEvent, config.BufferSize)

	words, languages, err := moderation.LoadWordlists()
	if err != nil {
		return fmt.Errorf("loading wordlists: %w", err)
	}
	log.Info(fmt.Sprintf("%d censored words loaded [%d languages]", len(words), len(languages)))

	moderator, err := moderation.NewModerator(words, censorChar)
	if err != nil {
		return fmt.Errorf("building moderator: %w", err)
	}

	// 4. Sockets: chat listener and discovery socket
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", config.Host, config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", config.Port, err)
	}
	defer func() { _ = listener.Close() }()

	chatServer := server.New(log, listener, registry, submitted, accepted, server.SessionConfig{
		BufferSize:       config.ConnectionBufferSize,
		MaxContentLength: config.MaxContentLength,
		WriteTimeout:     config.WriteTimeout,
		JoinTimeout:      config.JoinTimeout,
	})

	// 5. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewModerationWorker(moderator, submitted, accepted, log),
		runtime.NewBroadcaster(log, registry, accepted),
		workers.NewHeartbeatWorker(log, registry, config.HeartbeatInterval),
		chatServer,
	)

	if config.DiscoveryEnabled {
		udpConn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", config.DiscoveryPort))
		if err != nil {
			return fmt.Errorf("failed to bind discovery port %d: %w", config.DiscoveryPort, err)
		}
		defer func() { _ = udpConn.Close() }()

		advertised := fmt.Sprintf("%s:%d", advertisedHost(config), config.Port)
		sup.Add(discovery.NewResponder(log, udpConn, advertised))
	}

	// 6. Run until a signal arrives, then drain
	log.Info("Starting wisp server", "chat_port", config.Port,
		"discovery", config.DiscoveryEnabled)
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}

// advertisedHost picks the address put into discovery replies. The
// configured value wins; otherwise the kernel tells us which interface
// routes outward (no packet is actually sent to the probe address).
func advertisedHost(config Config) string {
	if config.AdvertisedHost != "" {
		return config.AdvertisedHost
	}
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer func() { _ = conn.Close() }()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
