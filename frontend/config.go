package frontend

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config controls which listeners are attached to the registry and whether
// the counters are served over HTTP.
type Config struct {
	Listeners ListenersCfg `toml:"listeners"`
	Metrics   MetricsCfg   `toml:"metrics"`
}

type ListenersCfg struct {
	EchoEnv string `toml:"echo_env"` // echo listener fires while this env var is set; empty disables it
	Trace   string `toml:"trace"`    // CSV trace output path; empty disables tracing
}

type MetricsCfg struct {
	Addr   string        `toml:"addr"`   // listen address for /metrics; empty disables the server
	Linger time.Duration `toml:"linger"` // how long to keep serving once the replay is done
}

// DefaultConfig enables the echo listener only.
func DefaultConfig() *Config {
	return &Config{
		Listeners: ListenersCfg{
			EchoEnv: "VMLISTEN_ECHO",
		},
	}
}

// ParseTOMLConfig reads a config file. Keys missing from the file keep their
// DefaultConfig values.
func ParseTOMLConfig(filepath string) (*Config, error) {
	cfg := DefaultConfig()

	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	md, err := toml.NewDecoder(file).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", filepath, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys in %s: %v", filepath, undecoded)
	}

	return cfg, nil
}

func MarshalTOMLConfig(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
