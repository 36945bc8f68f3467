package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig holds derived runtime values that other packages may query
// at runtime (populated during startup after merging flags+env+file).
type RuntimeConfig struct {
	BackendKeys map[string]struct{}
	SigningKeys map[string]struct{}
}

var (
	runtimeMu  sync.RWMutex
	runtimeCfg *RuntimeConfig
)

// SetRuntime sets the canonical runtime config used by the running server.
func SetRuntime(rc *RuntimeConfig) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeCfg = rc
}

// GetBackendKeys returns a copy of configured backend keys.
func GetBackendKeys() map[string]struct{} {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	out := map[string]struct{}{}
	if runtimeCfg == nil || runtimeCfg.BackendKeys == nil {
		return out
	}
	for k := range runtimeCfg.BackendKeys {
		out[k] = struct{}{}
	}
	return out
}

// GetSigningKeys returns a copy of configured signing keys.
func GetSigningKeys() map[string]struct{} {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	out := map[string]struct{}{}
	if runtimeCfg == nil || runtimeCfg.SigningKeys == nil {
		return out
	}
	for k := range runtimeCfg.SigningKeys {
		out[k] = struct{}{}
	}
	return out
}

// EffectiveConfigResult is the merged view of flags, env and config file
// handed to the app.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	// Source names the highest-precedence origin: "flags", "env" or "config".
	Source string
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// ParseCommandFlags parses the process flags and reports which were set
// explicitly so they can win over env and file values.
func ParseCommandFlags(args []string) (addr, dbPath, cfgPath string, setFlags map[string]bool, err error) {
	fs := flag.NewFlagSet("streamflow", flag.ContinueOnError)
	addrVal := fs.String("addr", "", "listen address (host:port)")
	dbVal := fs.String("db", "./data", "pebble database path")
	cfgVal := fs.String("config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return "", "", "", nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return *addrVal, *dbVal, *cfgVal, set, nil
}

// ResolveConfigPath picks the config file path: explicit flag wins, then the
// STREAMFLOW_CONFIG env var, then the conventional default.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet && flagVal != "" {
		return flagVal
	}
	if p := os.Getenv("STREAMFLOW_CONFIG"); p != "" {
		return p
	}
	return "streamflow.yaml"
}

// LoadEffective merges the config file with env overrides and fills
// defaults. A missing config file is not an error; env and defaults apply.
func LoadEffective(cfgPath string) (EffectiveConfigResult, error) {
	cfg, err := Load(cfgPath)
	source := "config"
	if err != nil {
		cfg = &Config{}
		source = "defaults"
	}
	envUsed := applyEnv(cfg)
	if envUsed {
		source = "env"
	}
	applyDefaults(cfg)
	return EffectiveConfigResult{
		Config: cfg,
		Addr:   cfg.Addr(),
		DBPath: cfg.Server.DBPath,
		Source: source,
	}, nil
}

// applyEnv overrides config values from STREAMFLOW_* env vars and reports
// whether any were present.
func applyEnv(cfg *Config) bool {
	used := false
	if v := os.Getenv("STREAMFLOW_ADDR"); v != "" {
		used = true
		host, port, ok := strings.Cut(v, ":")
		if ok {
			cfg.Server.Address = host
			if p, err := strconv.Atoi(port); err == nil {
				cfg.Server.Port = p
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("STREAMFLOW_DB_PATH"); v != "" {
		used = true
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("STREAMFLOW_LOG_LEVEL"); v != "" {
		used = true
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STREAMFLOW_FRONTEND_KEYS"); v != "" {
		used = true
		cfg.Security.APIKeys.Frontend = splitKeys(v)
	}
	if v := os.Getenv("STREAMFLOW_BACKEND_KEYS"); v != "" {
		used = true
		cfg.Security.APIKeys.Backend = splitKeys(v)
	}
	if v := os.Getenv("STREAMFLOW_ADMIN_KEYS"); v != "" {
		used = true
		cfg.Security.APIKeys.Admin = splitKeys(v)
	}
	if v := os.Getenv("STREAMFLOW_SIGNING_KEYS"); v != "" {
		used = true
		cfg.Security.SigningKeys = splitKeys(v)
	}
	return used
}

func splitKeys(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// applyDefaults fills zero values with the documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = "./data"
	}
	if cfg.Limits.MinPaidChatCents == 0 {
		cfg.Limits.MinPaidChatCents = 100
	}
	if cfg.Limits.SubmitTimeout == 0 {
		cfg.Limits.SubmitTimeout = Duration(10 * time.Second)
	}
	if cfg.Limits.MaxContentLen == 0 {
		cfg.Limits.MaxContentLen = 2000
	}
	if cfg.Limits.ChannelBuffer == 0 {
		cfg.Limits.ChannelBuffer = 64
	}
	if cfg.Limits.MaxMessageBytes == 0 {
		cfg.Limits.MaxMessageBytes = 64 * 1024
	}
	if cfg.Retention.BatchSize == 0 {
		cfg.Retention.BatchSize = 500
	}
}
