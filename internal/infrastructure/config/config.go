package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all executive configuration.
type Config struct {
	Kernel  KernelConfig
	Schemes SchemeConfig
	Logging LogConfig
	Monitor MonitorConfig
}

// KernelConfig holds boot-time settings for the trap dispatcher and session.
type KernelConfig struct {
	SerialPort    uint16        `envconfig:"SERIAL_PORT" default:"0x3F8"`
	SerialIRQ     uint8         `envconfig:"SERIAL_IRQ" default:"4"`
	BackgroundURL string        `envconfig:"BACKGROUND_URL" default:"file:///background.bmp"`
	ArenaBase     uint32        `envconfig:"ARENA_BASE" default:"0x100000"`
	ArenaSize     uint32        `envconfig:"ARENA_SIZE" default:"16777216"`
	TimerInterval time.Duration `envconfig:"TIMER_INTERVAL" default:"10ms"`
	DisplayWidth  int           `envconfig:"DISPLAY_WIDTH" default:"1024"`
	DisplayHeight int           `envconfig:"DISPLAY_HEIGHT" default:"768"`
	Program       string        `envconfig:"PROGRAM" default:""`
}

// SchemeConfig holds settings for the built-in scheme modules.
type SchemeConfig struct {
	FileRoot     string        `envconfig:"FILE_ROOT" default:"./rootfs"`
	HTTPTimeout  time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	HTTPRetries  int           `envconfig:"HTTP_RETRIES" default:"0"`
	HTTPRPS      float64       `envconfig:"HTTP_RPS" default:"10"`
	HTTPSanitize bool          `envconfig:"HTTP_SANITIZE" default:"false"`
	RandomSeed   uint64        `envconfig:"RANDOM_SEED" default:"0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MonitorConfig holds the monitor API configuration.
type MonitorConfig struct {
	Enabled  bool    `envconfig:"MONITOR_ENABLED" default:"true"`
	Addr     string  `envconfig:"MONITOR_ADDR" default:"127.0.0.1:9100"`
	GRPCAddr string  `envconfig:"GRPC_ADDR" default:"127.0.0.1:9101"`
	IRQRate  float64 `envconfig:"MONITOR_IRQ_RPS" default:"50"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values the machine or the schemes cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Kernel.TimerInterval <= 0:
		return fmt.Errorf("TIMER_INTERVAL must be positive, got %s", c.Kernel.TimerInterval)
	case c.Kernel.ArenaBase == 0:
		return fmt.Errorf("ARENA_BASE must be non-zero")
	case c.Kernel.ArenaSize < 16:
		return fmt.Errorf("ARENA_SIZE must be at least 16, got %d", c.Kernel.ArenaSize)
	case c.Kernel.SerialIRQ != 3 && c.Kernel.SerialIRQ != 4:
		return fmt.Errorf("SERIAL_IRQ must be 3 or 4, got %d", c.Kernel.SerialIRQ)
	case c.Schemes.HTTPRPS < 0:
		return fmt.Errorf("HTTP_RPS must not be negative, got %g", c.Schemes.HTTPRPS)
	case c.Schemes.HTTPRetries < 0:
		return fmt.Errorf("HTTP_RETRIES must not be negative, got %d", c.Schemes.HTTPRetries)
	case c.Monitor.IRQRate < 0:
		return fmt.Errorf("MONITOR_IRQ_RPS must not be negative, got %g", c.Monitor.IRQRate)
	}
	return nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Kernel: KernelConfig{
			SerialPort:    0x3F8,
			SerialIRQ:     4,
			BackgroundURL: "file:///background.bmp",
			ArenaBase:     0x100000,
			ArenaSize:     16 << 20,
			TimerInterval: 10 * time.Millisecond,
			DisplayWidth:  1024,
			DisplayHeight: 768,
		},
		Schemes: SchemeConfig{
			FileRoot:    "./rootfs",
			HTTPTimeout: 10 * time.Second,
			HTTPRPS:     10,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			Addr:     "127.0.0.1:9100",
			GRPCAddr: "127.0.0.1:9101",
			IRQRate:  50,
		},
	}
}
