// Package config provides configuration management for karton.
//
// Settings are layered: built-in defaults, then the TOML configuration file,
// then KARTON_* environment variables. Nested keys are separated by a double
// underscore in environment variables, so KARTON_IMAGES__DEV sets images.dev.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/wellmaintained/karton/internal/pathutil"
)

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "KARTON_"

type Config struct {
	// SupportDir holds the support files copied into every image. Empty
	// means the directory shipped next to the executable.
	SupportDir string `koanf:"support_dir"`
	// BuildRoot is where build contexts are generated by default.
	BuildRoot string `koanf:"build_root"`
	Verbosity int    `koanf:"verbosity"`
	// Images maps image names to the directory holding their definition.
	Images map[string]string `koanf:"images"`

	// Path is the configuration file that was loaded, if any.
	Path string `koanf:"-"`
}

// DefaultPath returns the configuration file used when none is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "karton", "config.toml")
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"support_dir": "",
		"build_root":  filepath.Join(xdg.CacheHome, "karton", "build"),
		"verbosity":   0,
	}
}

// Load loads the karton configuration. When path is empty DefaultPath is
// used and a missing file is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	loaded := ""
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		loaded = path
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Path = loaded

	if cfg.Verbosity < 0 {
		return nil, fmt.Errorf("verbosity must not be negative, got %d", cfg.Verbosity)
	}

	return &cfg, nil
}

// envKey maps KARTON_BUILD_ROOT to build_root and KARTON_IMAGES__DEV to
// images.dev.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// DefinitionDir returns the directory holding the definition of image.
// Relative directories are resolved against the configuration file.
func (c *Config) DefinitionDir(image string) (string, error) {
	dir, ok := c.Images[image]
	if !ok || dir == "" {
		return "", fmt.Errorf("no definition directory configured for image %q (set images.%s or pass --definition-dir)", image, image)
	}
	if !filepath.IsAbs(dir) && c.Path != "" {
		dir = filepath.Join(filepath.Dir(c.Path), dir)
	}
	return filepath.Clean(dir), nil
}

// BuildDir returns the default build context directory for image. The result
// is always a directory strictly inside BuildRoot.
func (c *Config) BuildDir(image string) (string, error) {
	if c.BuildRoot == "" {
		return "", fmt.Errorf("build_root is not set")
	}
	name := strings.NewReplacer("/", "_", ":", "_", "@", "_", `\`, "_").Replace(image)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%q cannot name a build directory", image)
	}

	dir, err := securejoin.SecureJoin(c.BuildRoot, name)
	if err != nil {
		return "", err
	}
	rel, err := pathutil.RelWithin(c.BuildRoot, dir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", fmt.Errorf("%q cannot name a build directory", image)
	}
	return dir, nil
}
