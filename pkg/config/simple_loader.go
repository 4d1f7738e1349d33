package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/memstore/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g.
// MEMSTORE_POOL_MAX_CONNECTIONS=50.
const EnvPrefix = "MEMSTORE"

// Load loads a configuration from a YAML file
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file").WithDetail("path", filePath)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML").WithDetail("path", filePath)
	}

	return nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file").WithDetail("path", filePath)
	}

	return nil
}

// LoadStoreConfig builds a StoreConfig from defaults, then the YAML file at
// path (skipped when path is empty), then MEMSTORE_* environment variables,
// and validates the result.
func LoadStoreConfig(path string) (*StoreConfig, error) {
	cfg := DefaultStoreConfig()
	if path != "" {
		if err := Load(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envOverrides maps each dotted config key to the setter applied when the
// matching environment variable is present.
var envOverrides = map[string]func(v *viper.Viper, key string, cfg *StoreConfig){
	"name": func(v *viper.Viper, k string, c *StoreConfig) { c.Name = v.GetString(k) },

	"pool.max_connections": func(v *viper.Viper, k string, c *StoreConfig) { c.Pool.MaxConnections = v.GetInt(k) },
	"pool.acquire_timeout": func(v *viper.Viper, k string, c *StoreConfig) { c.Pool.AcquireTimeout = v.GetDuration(k) },

	"retention.horizon_days": func(v *viper.Viper, k string, c *StoreConfig) { c.Retention.HorizonDays = v.GetInt(k) },

	"maintenance.interval": func(v *viper.Viper, k string, c *StoreConfig) { c.Maintenance.Interval = v.GetDuration(k) },
	"maintenance.collections": func(v *viper.Viper, k string, c *StoreConfig) {
		c.Maintenance.Collections = splitList(v.GetString(k))
	},

	"retry.max_attempts":  func(v *viper.Viper, k string, c *StoreConfig) { c.Retry.MaxAttempts = v.GetInt(k) },
	"retry.initial_delay": func(v *viper.Viper, k string, c *StoreConfig) { c.Retry.InitialDelay = v.GetDuration(k) },
	"retry.max_delay":     func(v *viper.Viper, k string, c *StoreConfig) { c.Retry.MaxDelay = v.GetDuration(k) },
	"retry.multiplier":    func(v *viper.Viper, k string, c *StoreConfig) { c.Retry.Multiplier = v.GetFloat64(k) },

	"observability.log_level":      func(v *viper.Viper, k string, c *StoreConfig) { c.Observability.LogLevel = v.GetString(k) },
	"observability.log_encoding":   func(v *viper.Viper, k string, c *StoreConfig) { c.Observability.LogEncoding = v.GetString(k) },
	"observability.enable_metrics": func(v *viper.Viper, k string, c *StoreConfig) { c.Observability.EnableMetrics = v.GetBool(k) },
	"observability.metrics_addr":   func(v *viper.Viper, k string, c *StoreConfig) { c.Observability.MetricsAddr = v.GetString(k) },
	"observability.enable_tracing": func(v *viper.Viper, k string, c *StoreConfig) { c.Observability.EnableTracing = v.GetBool(k) },

	"snapshot.compression": func(v *viper.Viper, k string, c *StoreConfig) { c.Snapshot.Compression = v.GetString(k) },
}

func applyEnvOverrides(cfg *StoreConfig) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, apply := range envOverrides {
		if err := v.BindEnv(key); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "bind environment override").WithDetail("key", key)
		}
		if v.IsSet(key) {
			apply(v, key, cfg)
		}
	}
	return nil
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
