package main

import "time"

// Config defines the client-side environment variables.
type Config struct {
	// ServerAddr skips discovery entirely when set.
	ServerAddr string `env:"WISP_SERVER_ADDR"`

	DiscoveryEnabled bool          `env:"WISP_DISCOVERY_ENABLED,default=true"`
	DiscoveryAddr    string        `env:"WISP_DISCOVERY_ADDR,default=255.255.255.255:32501"`
	DiscoveryTimeout time.Duration `env:"WISP_DISCOVERY_TIMEOUT,default=5s"`

	Name     string `env:"WISP_NAME,required=true"`
	LogLevel string `env:"LOG_LEVEL,default=warn"`
}
