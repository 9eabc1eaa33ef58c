// Package config loads walland.toml.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/awused/awconf"

	"github.com/thalesraymond/walland/lib/backend"
	"github.com/thalesraymond/walland/lib/convert"
	"github.com/thalesraymond/walland/lib/fetch"
	"github.com/thalesraymond/walland/lib/log"
	"github.com/thalesraymond/walland/lib/source"
)

// Fetch modes
const (
	FetchHTTP    = "http"
	FetchBrowser = "browser"
)

type Config struct {
	Source      string
	Backend     string
	BackendArgs string

	WallhavenAPIKey string
	WallhavenTag    string
	// Unset means source.DefaultWallhavenTop
	WallhavenTop *int

	TempDirectory string
	ImageMagick   string
	// "magick" or "builtin"
	Converter string
	// "http" or "browser"
	FetchMode     string
	DaemonTimeout string
	LogFile       string
	// Optional, enables rotating through sources instead of picking blindly
	DatabaseDir string
	UserAgent   string

	readyTimeout time.Duration
}

// Load reads path, or walland.toml from the usual config directories when
// path is empty. A missing default config leaves every field at its default.
func Load(path string) (*Config, error) {
	c := &Config{}

	if path != "" {
		md, err := toml.DecodeFile(path, c)
		if err != nil {
			return nil, fmt.Errorf("error reading config [%s]: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("unknown keys in config [%s]: %s", path, strings.Join(keys, ", "))
		}
	} else if err := awconf.LoadConfig("walland", c); err != nil {
		if !isNoConfig(err) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		log.Debugf("No config loaded, using defaults: %v", err)
		c = &Config{}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// awconf has no sentinel for a config that does not exist anywhere.
func isNoConfig(err error) bool {
	return strings.HasPrefix(err.Error(), "Unable to find config file")
}

// Defaults returns a validated config with no file behind it.
func Defaults() *Config {
	c := &Config{}
	// Cannot fail with every field empty
	_ = c.validate()
	return c
}

// Top is how many leading Wallhaven results are eligible.
func (c *Config) Top() int {
	if c.WallhavenTop == nil {
		return source.DefaultWallhavenTop
	}
	return *c.WallhavenTop
}

// ReadyTimeout bounds the wait for a spawned backend daemon.
func (c *Config) ReadyTimeout() time.Duration {
	return c.readyTimeout
}

func (c *Config) validate() error {
	if c.Source == "" {
		c.Source = source.Random
	}

	if c.Backend == "" {
		c.Backend = backend.Hyprpaper
	}

	if c.TempDirectory == "" {
		c.TempDirectory = fetch.DefaultTempDirectory
	}
	fi, err := os.Stat(c.TempDirectory)
	if err == nil && !fi.IsDir() {
		return fmt.Errorf("TempDirectory [%s] is not a directory", c.TempDirectory)
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf(
			"Error calling os.Stat on TempDirectory [%s]: %s", c.TempDirectory, err)
	}

	if c.DatabaseDir != "" {
		fi, err = os.Stat(c.DatabaseDir)
		if err != nil {
			return fmt.Errorf(
				"Error calling os.Stat on DatabaseDir [%s]: %s", c.DatabaseDir, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("DatabaseDir [%s] is not a directory", c.DatabaseDir)
		}
	}

	if c.ImageMagick == "" {
		c.ImageMagick = convert.DefaultImageMagick
	}

	switch c.Converter {
	case "":
		c.Converter = convert.Magick
	case convert.Magick, convert.Builtin:
	default:
		return fmt.Errorf("Converter must be %q or %q, not %q", convert.Magick, convert.Builtin, c.Converter)
	}

	switch c.FetchMode {
	case "":
		c.FetchMode = FetchHTTP
	case FetchHTTP, FetchBrowser:
	default:
		return fmt.Errorf("FetchMode must be %q or %q, not %q", FetchHTTP, FetchBrowser, c.FetchMode)
	}

	c.readyTimeout = backend.DefaultReadyTimeout
	if c.DaemonTimeout != "" {
		d, err := time.ParseDuration(c.DaemonTimeout)
		if err != nil {
			return fmt.Errorf("invalid DaemonTimeout %q: %w", c.DaemonTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("DaemonTimeout must be positive, got %s", d)
		}
		c.readyTimeout = d
	}

	if c.UserAgent == "" {
		c.UserAgent = fetch.DefaultUserAgent
	}

	return nil
}
