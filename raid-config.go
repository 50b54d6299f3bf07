package raidsim

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Options configures a simulated array. The zero value is not usable, start
// from DefaultOptions or LoadOptions.
type Options struct {
	Level          string `yaml:"level"`
	DriveCount     int    `yaml:"driveCount"`
	SectorCount    int    `yaml:"sectorsPerDrive"`
	BlockSize      int    `yaml:"blockSize"`
	RebuildDelayMs int    `yaml:"rebuildDelayMs"`
	LogFile        string `yaml:"logFile"`
	DriveDir       string `yaml:"driveDir"`
	Quiet          bool   `yaml:"quiet"`
}

func DefaultOptions() *Options {
	return &Options{
		Level:          "raid5",
		DriveCount:     4,
		SectorCount:    defaultSectorCount,
		BlockSize:      DefaultBlockSize,
		RebuildDelayMs: 50,
		LogFile:        "system.log",
		DriveDir:       "drives",
	}
}

// RebuildDelay is the per-sector pacing of a rebuild, zero in tests.
func (o *Options) RebuildDelay() time.Duration {
	return time.Duration(o.RebuildDelayMs) * time.Millisecond
}

// LoadOptions reads the yaml configuration at path, falling back to the
// defaults when the file does not exist.
func LoadOptions(path string) (*Options, error) {
	opt := DefaultOptions()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opt, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, opt); err != nil {
		return nil, err
	}
	return opt, nil
}

// Save persists the options for the next session.
func (o *Options) Save(path string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0666)
}
