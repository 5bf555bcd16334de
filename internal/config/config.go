// Package config loads server settings from an optional YAML file and
// GATEPASS_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"` // empty disables the gRPC listener

	Env    string `yaml:"env"`     // "dev" | "prod"
	Store  string `yaml:"store"`   // "sqlite" | "memory"
	DBPath string `yaml:"db_path"` // e.g. "./data/gatepass.db"

	// PassSecret keys pass encryption and checksums. JWTSecret verifies
	// agent bearer tokens minted by the identity service.
	PassSecret string `yaml:"pass_secret"`
	JWTSecret  string `yaml:"jwt_secret"`

	Gates []string `yaml:"gates"`

	Validity Validity `yaml:"validity"`

	// Overstay monitor cadence; 0 disables it.
	OverstayIntervalMinutes int `yaml:"overstay_interval_minutes"`
}

// Validity bounds the lifetime of an issued pass, in hours.
type Validity struct {
	DefaultHours int `yaml:"default_hours"`
	MinHours     int `yaml:"min_hours"`
	MaxHours     int `yaml:"max_hours"`
}

// DefaultGates is the campus gate set used when none is configured.
var DefaultGates = []string{"Main", "East", "West", "North", "South"}

func Defaults() Config {
	return Config{
		HTTPAddr: ":8080",
		GRPCAddr: ":9090",
		Env:      "dev",
		Store:    "sqlite",
		DBPath:   "./data/gatepass.db",
		Gates:    append([]string(nil), DefaultGates...),
		Validity: Validity{
			DefaultHours: 24,
			MinHours:     1,
			MaxHours:     168,
		},
		OverstayIntervalMinutes: 5,
	}
}

// Load reads path (when non-empty) over the defaults, applies the
// environment and validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a config from defaults and the environment only. It does
// not validate.
func FromEnv() Config {
	cfg := Defaults()
	cfg.applyEnv()
	cfg.normalize()
	return cfg
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getenvDefault("GATEPASS_HTTP_ADDR", c.HTTPAddr)
	if v, ok := os.LookupEnv("GATEPASS_GRPC_ADDR"); ok {
		c.GRPCAddr = strings.TrimSpace(v)
	}
	c.Env = getenvDefault("GATEPASS_ENV", c.Env)
	c.Store = getenvDefault("GATEPASS_STORE", c.Store)
	c.DBPath = getenvDefault("GATEPASS_DB_PATH", c.DBPath)
	c.PassSecret = getenvDefault("GATEPASS_PASS_SECRET", c.PassSecret)
	c.JWTSecret = getenvDefault("GATEPASS_JWT_SECRET", c.JWTSecret)

	if gates := splitCSV(os.Getenv("GATEPASS_GATES")); len(gates) > 0 {
		c.Gates = gates
	}

	c.Validity.DefaultHours = getenvInt("GATEPASS_VALIDITY_DEFAULT_HOURS", c.Validity.DefaultHours)
	c.Validity.MinHours = getenvInt("GATEPASS_VALIDITY_MIN_HOURS", c.Validity.MinHours)
	c.Validity.MaxHours = getenvInt("GATEPASS_VALIDITY_MAX_HOURS", c.Validity.MaxHours)
	c.OverstayIntervalMinutes = getenvInt("GATEPASS_OVERSTAY_INTERVAL_MINUTES", c.OverstayIntervalMinutes)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != "dev" && c.Env != "prod" {
		// fail-soft: treat unknown as dev
		c.Env = "dev"
	}
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))

	gates := make([]string, 0, len(c.Gates))
	for _, g := range c.Gates {
		if g = strings.TrimSpace(g); g != "" {
			gates = append(gates, g)
		}
	}
	c.Gates = gates
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error

	if c.PassSecret == "" {
		errs = append(errs, errors.New("pass secret is required (GATEPASS_PASS_SECRET)"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required (GATEPASS_JWT_SECRET)"))
	}
	if c.Store != "sqlite" && c.Store != "memory" {
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.Store == "sqlite" && c.DBPath == "" {
		errs = append(errs, errors.New("db path is required for the sqlite store"))
	}
	if len(c.Gates) == 0 {
		errs = append(errs, errors.New("at least one gate must be configured"))
	}

	v := c.Validity
	switch {
	case v.MinHours < 1:
		errs = append(errs, fmt.Errorf("validity min_hours must be >= 1, got %d", v.MinHours))
	case v.MaxHours < v.MinHours:
		errs = append(errs, fmt.Errorf("validity max_hours %d below min_hours %d", v.MaxHours, v.MinHours))
	case v.DefaultHours < v.MinHours || v.DefaultHours > v.MaxHours:
		errs = append(errs, fmt.Errorf("validity default_hours %d outside [%d, %d]", v.DefaultHours, v.MinHours, v.MaxHours))
	}

	return errors.Join(errs...)
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
