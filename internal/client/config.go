package client

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig is the optional TOML configuration of the terminal client.
type FileConfig struct {
	Server  string        `toml:"server"`
	Timeout time.Duration `toml:"timeout"`
	LogFile string        `toml:"log_file"`
}

// LoadFileConfig reads a FileConfig from path. Unknown keys are rejected
// so typos surface instead of being ignored.
func LoadFileConfig(path string) (*FileConfig, error) {
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	return &cfg, nil
}
