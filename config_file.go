package cocodb

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type fileConfig struct {
	Endpoint          string   `toml:"endpoint"`
	Credential        string   `toml:"credential"`
	CredentialEnv     string   `toml:"credential_env"`
	MaxBuffered       int      `toml:"max_buffered"`
	HibernateInterval string   `toml:"hibernate_interval"`
	Backoff           []string `toml:"backoff"`

	CircuitBreaker *struct {
		MaxRequests uint32 `toml:"max_requests"`
		Interval    string `toml:"interval"`
		Timeout     string `toml:"timeout"`
	} `toml:"circuit_breaker"`
}

// LoadConfigFile reads session settings from a TOML file:
//
//	endpoint = "wss://db.example.com"
//	credential_env = "COCODB_CREDENTIAL"
//	hibernate_interval = "8s"
//	backoff = ["1ms", "500ms", "1s"]
//
//	[circuit_breaker]
//	max_requests = 1
//	timeout = "30s"
//
// Keys left out keep their zero value, so the session defaults apply.
// credential_env names an environment variable holding the credential and
// takes precedence over credential.
func LoadConfigFile(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("cocodb: load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("cocodb: load config %s: unknown key %q", path, undecoded[0].String())
	}

	cfg := Config{
		Endpoint:    strings.TrimSpace(raw.Endpoint),
		Credential:  strings.TrimSpace(raw.Credential),
		MaxBuffered: raw.MaxBuffered,
	}

	if meta.IsDefined("credential_env") {
		name := strings.TrimSpace(raw.CredentialEnv)
		cfg.Credential = strings.TrimSpace(os.Getenv(name))
		if cfg.Credential == "" {
			return Config{}, fmt.Errorf("%w: environment variable %s is empty", ErrInvalidCredential, name)
		}
	}

	if meta.IsDefined("hibernate_interval") {
		value := strings.TrimSpace(raw.HibernateInterval)
		if value == "off" {
			cfg.HibernateInterval = -1
		} else if cfg.HibernateInterval, err = parseDuration("hibernate_interval", value); err != nil {
			return Config{}, err
		}
	}

	for i, step := range raw.Backoff {
		d, err := parseDuration(fmt.Sprintf("backoff[%d]", i), step)
		if err != nil {
			return Config{}, err
		}
		cfg.Backoff = append(cfg.Backoff, d)
	}

	if cb := raw.CircuitBreaker; cb != nil {
		var interval, timeout time.Duration
		if meta.IsDefined("circuit_breaker", "interval") {
			if interval, err = parseDuration("circuit_breaker.interval", cb.Interval); err != nil {
				return Config{}, err
			}
		}
		if meta.IsDefined("circuit_breaker", "timeout") {
			if timeout, err = parseDuration("circuit_breaker.timeout", cb.Timeout); err != nil {
				return Config{}, err
			}
		}
		cfg.NewCircuitBreaker = NewCircuitBreakerConfig(cb.MaxRequests, interval, timeout)
	}

	return cfg, cfg.validate()
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("cocodb: parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("cocodb: parse %s: negative duration %s", key, d)
	}
	return d, nil
}
