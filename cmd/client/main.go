package main

import (
	"bufio"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"wisp-chat/client"
	"wisp-chat/discovery"
	"wisp-chat/errors"
	"wisp-chat/ui"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("! %v", err))
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Resolve the server address: explicit config beats discovery.
	addr, err := resolveServer(ctx, config, log)
	if err != nil {
		return exitRuntime, err
	}

	// 4. Join the chat.
	session, err := client.Connect(ctx, log, addr, config.Name)
	if err != nil {
		return exitRuntime, err
	}
	defer session.Close()

	console := ui.NewConsole(os.Stdout, config.Name)
	fmt.Printf("Connected to %s as %s. Type /quit to leave.\n", addr, config.Name)

	// 5. Input loop: stdin lines become chat messages.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" {
				session.Leave()
				return
			}
			if err := session.Send(line); err != nil {
				log.Warn("Send failed", "error", err)
				return
			}
		}
		session.Leave()
	}()

	// 6. Event loop: render everything the server broadcasts until
	// the stream ends or the user interrupts.
	for {
		select {
		case <-ctx.Done():
			session.Leave()
			return exitOK, nil
		case evt, ok := <-session.Events():
			if !ok {
				return exitOK, nil
			}
			console.Render(evt)
		}
	}
}

// resolveServer returns the chat address to dial, falling back from
// discovery to the explicit address per configuration.
func resolveServer(ctx context.Context, config Config, log *slog.Logger) (string, error) {
	if config.ServerAddr != "" {
		return config.ServerAddr, nil
	}
	if !config.DiscoveryEnabled {
		return "", fmt.Errorf("discovery disabled and WISP_SERVER_ADDR not set")
	}

	addr, err := discovery.Locate(ctx, log, config.DiscoveryAddr, config.DiscoveryTimeout)
	if err != nil {
		if goerrors.Is(err, errors.ErrDiscoveryTimeout) {
			return "", fmt.Errorf("%w: set WISP_SERVER_ADDR to connect directly", err)
		}
		return "", err
	}
	return addr, nil
}
