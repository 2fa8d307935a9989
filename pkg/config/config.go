// Package config loads the hermes configuration.
//
// Values are read, from lower to higher priority, from built-in defaults,
// the hermes.toml file in the project directory (or an explicit file) and
// HERMES_* environment variables:
//
//	HERMES_DEPOSIT_INVENIO_SITE_URL=https://zenodo.org hermes deposit ...
package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	herrors "github.com/matzehuels/hermes/pkg/errors"
)

const (
	// FileName is the configuration file looked up in the project directory.
	FileName = "hermes.toml"

	envPrefix = "HERMES"
)

// Config is the typed configuration.
type Config struct {
	Harvest HarvestConfig `mapstructure:"harvest"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Deposit DepositConfig `mapstructure:"deposit"`
	GitHub  GitHubConfig  `mapstructure:"github"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

// HarvestConfig selects the harvesters to run, in order.
type HarvestConfig struct {
	Sources []string `mapstructure:"sources"`
}

// CacheConfig locates the workflow cache. A relative Dir is resolved
// against the project directory.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// DepositConfig selects and configures the deposition platform.
type DepositConfig struct {
	Target  string        `mapstructure:"target"`
	Invenio InvenioConfig `mapstructure:"invenio"`
}

// InvenioConfig configures an Invenio-based platform such as Zenodo.
type InvenioConfig struct {
	SiteURL     string            `mapstructure:"site_url"`
	APIPaths    map[string]string `mapstructure:"api_paths"`
	SchemaPaths map[string]string `mapstructure:"schema_paths"`
	AccessRight string            `mapstructure:"access_right"`
	License     string            `mapstructure:"license"`
	Communities []string          `mapstructure:"communities"`
}

// GitHubConfig configures the github harvester. Repository ("owner/repo")
// overrides the repository detected from the git remote.
type GitHubConfig struct {
	Token      string `mapstructure:"token"`
	Repository string `mapstructure:"repository"`
	APIURL     string `mapstructure:"api_url"`
}

// Load reads the configuration for the project in dir. If file is empty,
// dir/hermes.toml is used when present; a missing default file is not an
// error, a missing explicit file is.
func Load(dir, file string) (*Config, error) {
	v := newViper()

	explicit := file != ""
	if !explicit {
		file = filepath.Join(dir, FileName)
	}
	v.SetConfigFile(file)

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		switch {
		case missing && explicit:
			return nil, herrors.Wrap(herrors.ErrCodeFileNotFound, err, "config file %s", file)
		case !missing:
			return nil, herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "read %s", file)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.File = used
	return cfg, nil
}

// Default returns the built-in configuration with environment overrides.
func Default() (*Config, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("harvest.sources", []string{"cff", "pyproject", "codemeta", "git"})
	v.SetDefault("cache.dir", ".hermes")
	v.SetDefault("deposit.target", "invenio")
	v.SetDefault("deposit.invenio.site_url", "https://sandbox.zenodo.org")
	v.SetDefault("deposit.invenio.api_paths", map[string]string{
		"depositions": "api/deposit/depositions",
	})
	v.SetDefault("deposit.invenio.schema_paths", map[string]string{
		"record": "schemas/records/record-v1.0.0.json",
	})
	v.SetDefault("deposit.invenio.access_right", "open")
	v.SetDefault("deposit.invenio.license", "")
	v.SetDefault("deposit.invenio.communities", []string{})
	v.SetDefault("github.token", "")
	v.SetDefault("github.repository", "")
	v.SetDefault("github.api_url", "https://api.github.com")
}

// Validate checks values that later stages cannot recover from.
func (c *Config) Validate() error {
	if c.Cache.Dir == "" {
		return herrors.New(herrors.ErrCodeInvalidConfig, "cache.dir must not be empty")
	}
	for _, s := range c.Harvest.Sources {
		if err := herrors.ValidateSlotName(s); err != nil {
			return herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "harvest.sources")
		}
	}
	if c.Deposit.Target == "invenio" {
		if err := herrors.ValidateURL(c.Deposit.Invenio.SiteURL); err != nil {
			return herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "deposit.invenio.site_url")
		}
	}
	if err := herrors.ValidateURL(c.GitHub.APIURL); err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "github.api_url")
	}
	switch c.Deposit.Invenio.AccessRight {
	case "open", "embargoed", "restricted", "closed":
	default:
		return herrors.New(herrors.ErrCodeInvalidConfig,
			"deposit.invenio.access_right must be open, embargoed, restricted or closed, got %q",
			c.Deposit.Invenio.AccessRight)
	}
	return nil
}

// CacheDir returns the absolute cache directory for the project in dir.
func (c *Config) CacheDir(dir string) string {
	if filepath.IsAbs(c.Cache.Dir) {
		return c.Cache.Dir
	}
	return filepath.Join(dir, c.Cache.Dir)
}
