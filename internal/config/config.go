package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-sysup/internal/param"
)

// Config holds sysup configuration. The target image path is fixed and has
// no key.
type Config struct {
	LogLevel  string      `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string      `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Version   uint64      `mapstructure:"version" yaml:"version" json:"version"`
	Param     ParamConfig `mapstructure:"param" yaml:"param" json:"param"`
	Attr      AttrConfig  `mapstructure:"attr" yaml:"attr" json:"attr"`
}

// ParamConfig locates the parameter store and its slots
type ParamConfig struct {
	Path         string `mapstructure:"path" yaml:"path" json:"path"`
	ResultOffset int64  `mapstructure:"result_offset" yaml:"result_offset" json:"result_offset"`
	UpdateOffset int64  `mapstructure:"update_offset" yaml:"update_offset" json:"update_offset"`
}

// AttrConfig controls the attribute directory mount
type AttrConfig struct {
	Mountpoint string `mapstructure:"mountpoint" yaml:"mountpoint" json:"mountpoint"`
	AllowOther bool   `mapstructure:"allow_other" yaml:"allow_other" json:"allow_other"`
}

// Layout returns the parameter store layout described by the config
func (p ParamConfig) Layout() param.Layout {
	return param.NewLayout(p.ResultOffset, p.UpdateOffset)
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("version", 0)
	v.SetDefault("param.path", "/var/lib/sysup/param.bin")
	v.SetDefault("param.result_offset", 0)
	v.SetDefault("param.update_offset", param.DefaultUpdateOffset)
	v.SetDefault("attr.mountpoint", "/run/sysup/sec_sysup")
	v.SetDefault("attr.allow_other", false)
}

// New returns a viper instance with defaults, search paths and environment
// binding set up. Keys are read from SYSUP_* variables, with "." mapped to "_".
func New(configFile string) *viper.Viper {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("sysup-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.sysup")
		v.AddConfigPath("/etc/sysup")
	}

	SetDefaults(v)

	v.SetEnvPrefix("SYSUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configuration from v. A missing config file is not an error
// when none was named explicitly; defaults and environment apply.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Param.Layout().Validate(); err != nil {
		return nil, fmt.Errorf("invalid param layout: %w", err)
	}

	return &config, nil
}
