// Package config loads BAP settings from a YAML file and the environment.
//
// Values are resolved in three layers: built-in defaults, then the YAML
// file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sage-x-project/sage-beckn-go/pkg/protocol"
	"github.com/sage-x-project/sage-beckn-go/pkg/signer"
	"gopkg.in/yaml.v3"
)

// Config is the resolved BAP configuration
type Config struct {
	BapID  string
	BapURI string

	Port            int
	ShutdownTimeout time.Duration

	GatewayURL     string
	GatewayTimeout time.Duration

	KeysDir      string
	HeaderFormat string

	Domain      string
	Country     string
	City        string
	CoreVersion string
	DefaultGPS  string
	Radius      protocol.Radius

	LogLevel string

	// CallbackRate is the sustained on_ callback rate allowed per remote
	// address, in requests per second
	CallbackRate  float64
	CallbackBurst int
}

// FileConfig mirrors the YAML layout
type FileConfig struct {
	BAP     FileBAPConfig     `yaml:"bap"`
	Server  FileServerConfig  `yaml:"server"`
	Gateway FileGatewayConfig `yaml:"gateway"`
	Keys    FileKeysConfig    `yaml:"keys"`
	Beckn   FileBecknConfig   `yaml:"beckn"`
	Log     FileLogConfig     `yaml:"log"`
}

type FileBAPConfig struct {
	ID  string `yaml:"id"`
	URI string `yaml:"uri"`
}

type FileServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	CallbackRate    float64       `yaml:"callbackRate"`
	CallbackBurst   int           `yaml:"callbackBurst"`
}

type FileGatewayConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type FileKeysConfig struct {
	Dir          string `yaml:"dir"`
	HeaderFormat string `yaml:"headerFormat"`
}

type FileBecknConfig struct {
	Domain      string           `yaml:"domain"`
	Country     string           `yaml:"country"`
	City        string           `yaml:"city"`
	CoreVersion string           `yaml:"coreVersion"`
	DefaultGPS  string           `yaml:"defaultGps"`
	Radius      *protocol.Radius `yaml:"radius"`
}

type FileLogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		BapID:           "bap.beckn-production.up.railway.app",
		BapURI:          "https://beckn-production.up.railway.app",
		Port:            5002,
		ShutdownTimeout: 10 * time.Second,
		GatewayURL:      "https://gateway.becknprotocol.io",
		GatewayTimeout:  30 * time.Second,
		KeysDir:         "keys",
		HeaderFormat:    signer.HeaderFormatV1.String(),
		Domain:          protocol.DefaultDomain,
		Country:         protocol.DefaultCountry,
		City:            protocol.DefaultCity,
		CoreVersion:     protocol.DefaultCoreVersion,
		DefaultGPS:      protocol.DefaultGPS,
		Radius:          protocol.DefaultRadius,
		LogLevel:        "info",
		CallbackRate:    20,
		CallbackBurst:   40,
	}
}

// LoadFromPath resolves the configuration. An explicit configPath must
// exist; without one the usual locations are tried and skipped if absent.
func LoadFromPath(configPath string) (Config, error) {
	cfg := DefaultConfig()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"configs/config.yaml",
			"config.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if configPath == "" && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}

		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}

		Merge(&cfg, parsed)
		break
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Merge copies every set field of src over dst
func Merge(dst *Config, src FileConfig) {
	if src.BAP.ID != "" {
		dst.BapID = src.BAP.ID
	}
	if src.BAP.URI != "" {
		dst.BapURI = src.BAP.URI
	}
	if src.Server.Port != 0 {
		dst.Port = src.Server.Port
	}
	if src.Server.ShutdownTimeout != 0 {
		dst.ShutdownTimeout = src.Server.ShutdownTimeout
	}
	if src.Server.CallbackRate != 0 {
		dst.CallbackRate = src.Server.CallbackRate
	}
	if src.Server.CallbackBurst != 0 {
		dst.CallbackBurst = src.Server.CallbackBurst
	}
	if src.Gateway.URL != "" {
		dst.GatewayURL = src.Gateway.URL
	}
	if src.Gateway.Timeout != 0 {
		dst.GatewayTimeout = src.Gateway.Timeout
	}
	if src.Keys.Dir != "" {
		dst.KeysDir = src.Keys.Dir
	}
	if src.Keys.HeaderFormat != "" {
		dst.HeaderFormat = src.Keys.HeaderFormat
	}
	if src.Beckn.Domain != "" {
		dst.Domain = src.Beckn.Domain
	}
	if src.Beckn.Country != "" {
		dst.Country = src.Beckn.Country
	}
	if src.Beckn.City != "" {
		dst.City = src.Beckn.City
	}
	if src.Beckn.CoreVersion != "" {
		dst.CoreVersion = src.Beckn.CoreVersion
	}
	if src.Beckn.DefaultGPS != "" {
		dst.DefaultGPS = src.Beckn.DefaultGPS
	}
	if src.Beckn.Radius != nil {
		dst.Radius = *src.Beckn.Radius
	}
	if src.Log.Level != "" {
		dst.LogLevel = src.Log.Level
	}
}

// ApplyEnvOverrides applies BAP_ID, BAP_URI, PORT, GATEWAY_URL, KEYS_DIR,
// BECKN_DOMAIN, BECKN_COUNTRY, BECKN_CITY and LOG_LEVEL
func ApplyEnvOverrides(cfg *Config) error {
	strs := []struct {
		env string
		dst *string
	}{
		{"BAP_ID", &cfg.BapID},
		{"BAP_URI", &cfg.BapURI},
		{"GATEWAY_URL", &cfg.GatewayURL},
		{"KEYS_DIR", &cfg.KeysDir},
		{"BECKN_DOMAIN", &cfg.Domain},
		{"BECKN_COUNTRY", &cfg.Country},
		{"BECKN_CITY", &cfg.City},
		{"LOG_LEVEL", &cfg.LogLevel},
	}
	for _, s := range strs {
		if v := strings.TrimSpace(os.Getenv(s.env)); v != "" {
			*s.dst = v
		}
	}

	raw := strings.TrimSpace(os.Getenv("PORT"))
	if raw == "" {
		return nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid PORT %q: %w", raw, err)
	}
	cfg.Port = port
	return nil
}

// Validate checks the configuration before the server starts
func (c Config) Validate() error {
	if err := signer.ValidateSubscriberID(c.BapID); err != nil {
		return fmt.Errorf("bap id: %w", err)
	}
	if err := validateURL(c.BapURI); err != nil {
		return fmt.Errorf("bap uri: %w", err)
	}
	if err := validateURL(c.GatewayURL); err != nil {
		return fmt.Errorf("gateway url: %w", err)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.KeysDir == "" {
		return fmt.Errorf("keys dir is required")
	}
	if _, err := signer.ParseHeaderFormat(c.HeaderFormat); err != nil {
		return err
	}
	if c.Domain == "" || c.Country == "" || c.City == "" || c.CoreVersion == "" {
		return fmt.Errorf("beckn domain, country, city and core version are required")
	}
	if c.CallbackRate <= 0 || c.CallbackBurst <= 0 {
		return fmt.Errorf("callback rate and burst must be positive")
	}
	return nil
}

// Addr returns the listen address
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http or https URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
