package server

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds server configuration. Every field can be set from a YAML file
// and overridden by environment variables.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Chain ChainConfig `yaml:"chain"`
	Log   LogConfig   `yaml:"log"`
}

// HTTPConfig configures the signalling and stats endpoints.
type HTTPConfig struct {
	Addr         string        `yaml:"addr" env:"INTEROP_ADDR" env-default:":8080" env-description:"listen address, :0 for a random port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"INTEROP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"INTEROP_WRITE_TIMEOUT" env-default:"30s"`
}

// ChainConfig selects the interceptors seeded into every connection.
type ChainConfig struct {
	LogPackets       bool    `yaml:"log_packets" env:"INTEROP_LOG_PACKETS" env-description:"log every packet at debug level"`
	LossEvery        uint16  `yaml:"loss_every" env:"INTEROP_LOSS_EVERY" env-description:"drop incoming RTP with seq % N == 0, 0 disables"`
	Gain             float64 `yaml:"gain" env:"INTEROP_GAIN" env-default:"1" env-description:"L16 gain factor applied to incoming audio, 1 disables"`
	AudioOnly        bool    `yaml:"audio_only" env:"INTEROP_AUDIO_ONLY" env-default:"true"`
	StrictRTCP       bool    `yaml:"strict_rtcp" env:"INTEROP_STRICT_RTCP"`
	MetricsNamespace string  `yaml:"metrics_namespace" env:"INTEROP_METRICS_NAMESPACE" env-default:"rtpchain"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"INTEROP_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"INTEROP_LOG_FORMAT" env-default:"text" env-description:"text or json"`
}

// DefaultConfig returns a configuration suitable for testing: a random port
// and a chain that only observes.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:         ":0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Chain: ChainConfig{
			Gain:             1,
			AudioOnly:        true,
			MetricsNamespace: "rtpchain",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads path, if not empty, and then the environment.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
