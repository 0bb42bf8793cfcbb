package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "tasksync"
	configFile = "config.yaml"
	envPrefix  = "TASKSYNC"

	DefaultBaseURL = "http://127.0.0.1:8000/api"
	DefaultTimeout = 15 * time.Second
)

type Config struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	DataDir string        `mapstructure:"data_dir" yaml:"data_dir"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

func Default() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		DataDir: filepath.Join(xdg.DataHome, xdgAppName),
		Timeout: DefaultTimeout,
	}
}

func GetConfigPath() string {
	return filepath.Join(xdg.ConfigHome, xdgAppName, configFile)
}

func Load() (*Config, error) {
	return LoadFile(GetConfigPath())
}

// LoadFile reads path if it exists and applies TASKSYNC_* environment
// overrides on top. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("timeout", def.Timeout)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &cfg, nil
}

func Save(cfg *Config) error {
	return SaveFile(GetConfigPath(), cfg)
}

func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return encoder.Close()
}
