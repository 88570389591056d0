package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host             string `env:"WISP_HOST,default=0.0.0.0"`
	Port             int    `env:"WISP_PORT,default=32500"`
	DiscoveryPort    int    `env:"WISP_DISCOVERY_PORT,default=32501"`
	DiscoveryEnabled bool   `env:"WISP_DISCOVERY_ENABLED,default=true"`
	// AdvertisedHost is what discovery replies with; when empty the
	// outbound interface address is detected at startup.
	AdvertisedHost string `env:"WISP_ADVERTISED_HOST"`

	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=1024"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=5s"`
	JoinTimeout          time.Duration `env:"JOIN_TIMEOUT,default=30s"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	CensorReplacement    string        `env:"CENSOR_REPLACEMENT,default=*"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
}

// CharacterRune enforces that the censor replacement is one rune.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}
