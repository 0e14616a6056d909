// internal/platform/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
)

// EnvPrefix prefijo de todas las variables de entorno propias.
const EnvPrefix = "TRUSTSCAN_"

// CollectorNames colectores conocidos; define qué variables
// TRUSTSCAN_COLLECTORS_<NAME>_* se leen.
var CollectorNames = []string{
	"whois", "ssl", "hosting", "scraper", "archive",
	"urlhaus", "phishtank", "spamhaus",
	"patterns", "github", "abuseipdb",
}

type Config struct {
	Core       CoreConfig                   `yaml:"core" json:"core"`
	Output     OutputConfig                 `yaml:"output" json:"output"`
	Server     ServerConfig                 `yaml:"server" json:"server"`
	Store      StoreConfig                  `yaml:"store" json:"store"`
	Collectors map[string]CollectorSettings `yaml:"collectors" json:"collectors"`
	Resilience Resilience                   `yaml:"resilience" json:"resilience"`
	APIKeys    APIKeys                      `yaml:"api_keys" json:"-"`

	// VerifiedSitesFile lista YAML de sitios verificados manualmente
	VerifiedSitesFile string `yaml:"verified_sites_file" json:"verifiedSitesFile"`

	// Origen de la configuración (no serializado)
	ConfigFile string `yaml:"-" json:"-"`
	EnvFile    string `yaml:"-" json:"-"`
}

type CoreConfig struct {
	Workers           int    `yaml:"workers" json:"workers"`
	TimeoutS          int    `yaml:"timeout_s" json:"timeoutS"`                     // deadline global del escaneo
	CollectorTimeoutS int    `yaml:"collector_timeout_s" json:"collectorTimeoutS"` // timeout por colector si no se especifica
	Scheduler         string `yaml:"scheduler" json:"scheduler"`                   // priority | weighted
	LogLevel          string `yaml:"log_level" json:"logLevel"`
}

type OutputConfig struct {
	Dir        string `yaml:"dir" json:"dir"`
	Format     string `yaml:"format" json:"format"` // json | yaml
	UIDisabled bool   `yaml:"ui_disabled" json:"uiDisabled"`
}

type ServerConfig struct {
	Addr               string `yaml:"addr" json:"addr"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute" json:"rateLimitPerMinute"`
	CORSOrigin         string `yaml:"cors_origin" json:"corsOrigin"`
	ShutdownTimeoutS   int    `yaml:"shutdown_timeout_s" json:"shutdownTimeoutS"`
}

type StoreConfig struct {
	Driver   string `yaml:"driver" json:"driver"` // sqlite | postgres | memory
	DSN      string `yaml:"dsn" json:"-"`
	TTLHours int    `yaml:"ttl_hours" json:"ttlHours"`
}

// CollectorSettings sobreescrituras por colector. Los campos en cero
// heredan los valores por defecto del registry.
type CollectorSettings struct {
	Enabled   *bool                  `yaml:"enabled" json:"enabled,omitempty"`
	Timeout   time.Duration          `yaml:"timeout" json:"timeout,omitempty"`
	Retries   int                    `yaml:"retries" json:"retries,omitempty"`
	RateLimit int                    `yaml:"rate_limit" json:"rateLimit,omitempty"`
	Priority  int                    `yaml:"priority" json:"priority,omitempty"`
	Custom    map[string]interface{} `yaml:"custom" json:"custom,omitempty"`
}

type Resilience struct {
	// Retry configuration
	MaxRetries        int           `yaml:"max_retries" json:"maxRetries"`
	BackoffBase       time.Duration `yaml:"backoff_base" json:"backoffBase"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoffMultiplier"`

	// Circuit Breaker configuration
	CircuitBreakerEnabled     bool          `yaml:"circuit_breaker_enabled" json:"circuitBreakerEnabled"`
	CircuitBreakerThreshold   int           `yaml:"circuit_breaker_threshold" json:"circuitBreakerThreshold"`
	CircuitBreakerTimeout     time.Duration `yaml:"circuit_breaker_timeout" json:"circuitBreakerTimeout"`
	CircuitBreakerHalfOpenMax int           `yaml:"circuit_breaker_half_open_max" json:"circuitBreakerHalfOpenMax"`
}

type APIKeys struct {
	GitHubToken  string `yaml:"github_token"`
	PhishTankKey string `yaml:"phishtank_key"`
	AbuseIPDBKey string `yaml:"abuseipdb_key"`
}

// DefaultConfig retorna una configuración por defecto.
func DefaultConfig() Config {
	return Config{
		Core: CoreConfig{
			Workers:           8,
			TimeoutS:          30,
			CollectorTimeoutS: 15,
			Scheduler:         "priority",
			LogLevel:          "info",
		},
		Output: OutputConfig{
			Dir:    "scans",
			Format: "json",
		},
		Server: ServerConfig{
			Addr:               ":8080",
			RateLimitPerMinute: 10,
			CORSOrigin:         "*",
			ShutdownTimeoutS:   10,
		},
		Store: StoreConfig{
			Driver:   "sqlite",
			DSN:      "trustscan.db",
			TTLHours: 24,
		},
		Collectors: make(map[string]CollectorSettings),
		Resilience: Resilience{
			MaxRetries:                1,
			BackoffBase:               500 * time.Millisecond,
			BackoffMultiplier:         2.0,
			CircuitBreakerEnabled:     true,
			CircuitBreakerThreshold:   5,
			CircuitBreakerTimeout:     60 * time.Second,
			CircuitBreakerHalfOpenMax: 1,
		},
		VerifiedSitesFile: "",
	}
}

// RegisterFlags define los flags de configuración en fs. Los valores por
// defecto solo se muestran en la ayuda: Load aplica únicamente los flags
// cambiados explícitamente.
func RegisterFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()

	fs.String("config", "", "YAML config file (env TRUSTSCAN_CONFIG)")
	fs.String("env-file", ".env", "dotenv file with API keys")
	fs.String("log-level", def.Core.LogLevel, "log level: debug|info|warn|error")

	fs.IntP("workers", "w", def.Core.Workers, "max concurrent collectors")
	fs.IntP("timeout", "T", def.Core.TimeoutS, "overall scan deadline in seconds (0 = none)")
	fs.Int("collector-timeout", def.Core.CollectorTimeoutS, "default per-collector timeout in seconds")
	fs.String("scheduler", def.Core.Scheduler, "collector scheduling within a stage: priority|weighted")

	fs.StringP("output", "o", def.Output.Dir, "report output directory")
	fs.StringP("format", "f", def.Output.Format, "report file format: json|yaml")
	fs.Bool("no-ui", def.Output.UIDisabled, "print a plain table instead of the terminal UI")

	fs.String("addr", def.Server.Addr, "HTTP API listen address")
	fs.Int("rate-limit", def.Server.RateLimitPerMinute, "API scans per minute per client")
	fs.String("cors-origin", def.Server.CORSOrigin, "Access-Control-Allow-Origin value")

	fs.String("store", def.Store.Driver, "report store: sqlite|postgres|memory")
	fs.String("dsn", def.Store.DSN, "store DSN (sqlite path or postgres URL)")

	fs.String("verified-sites", def.VerifiedSitesFile, "verified sites YAML file")

	fs.IntP("retries", "r", def.Resilience.MaxRetries, "max retries per collector on transient errors")
	fs.Bool("circuit-breaker", def.Resilience.CircuitBreakerEnabled, "enable circuit breaker for failing collectors")
	fs.StringSlice("disable", nil, "collectors to disable (comma separated)")
}

// Load construye la configuración con precedencia:
// defaults -> YAML -> .env -> TRUSTSCAN_* -> flags cambiados.
// fs puede ser nil (sin flags).
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()

	cfg.ConfigFile = getenv(EnvPrefix+"CONFIG", "")
	if fs != nil && fs.Changed("config") {
		cfg.ConfigFile, _ = fs.GetString("config")
	}
	if cfg.ConfigFile != "" {
		if err := loadFile(cfg.ConfigFile, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.EnvFile = ".env"
	if fs != nil {
		if v, err := fs.GetString("env-file"); err == nil {
			cfg.EnvFile = v
		}
	}
	if err := loadDotEnv(cfg.EnvFile, fs != nil && fs.Changed("env-file")); err != nil {
		return cfg, err
	}

	loadFromEnv(&cfg)

	if fs != nil {
		if err := loadFromFlags(fs, &cfg); err != nil {
			return cfg, err
		}
	}

	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile decodifica el YAML sobre cfg; los campos ausentes conservan
// su valor actual.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrConfigLoadFailed, path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %v", domain.ErrConfigLoadFailed, path, err)
	}
	return nil
}

// loadDotEnv carga el archivo .env sin pisar variables ya definidas.
// Un archivo ausente solo es error si se pidió explícitamente.
func loadDotEnv(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if required {
			return fmt.Errorf("%w: env file %s: %v", domain.ErrConfigLoadFailed, path, err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: env file %s: %v", domain.ErrConfigLoadFailed, path, err)
	}
	return nil
}

// loadFromEnv carga configuración desde variables de entorno.
func loadFromEnv(cfg *Config) {
	if v := getenv(EnvPrefix+"WORKERS", ""); v != "" {
		cfg.Core.Workers = parseInt(v, cfg.Core.Workers)
	}
	if v := getenv(EnvPrefix+"TIMEOUT", ""); v != "" {
		cfg.Core.TimeoutS = parseInt(v, cfg.Core.TimeoutS)
	}
	if v := getenv(EnvPrefix+"COLLECTOR_TIMEOUT", ""); v != "" {
		cfg.Core.CollectorTimeoutS = parseInt(v, cfg.Core.CollectorTimeoutS)
	}
	if v := getenv(EnvPrefix+"SCHEDULER", ""); v != "" {
		cfg.Core.Scheduler = v
	}
	if v := getenv(EnvPrefix+"LOG_LEVEL", ""); v != "" {
		cfg.Core.LogLevel = v
	}

	if v := getenv(EnvPrefix+"OUTPUT_DIR", ""); v != "" {
		cfg.Output.Dir = v
	}
	if v := getenv(EnvPrefix+"OUTPUT_FORMAT", ""); v != "" {
		cfg.Output.Format = v
	}
	if v := getenv(EnvPrefix+"NO_UI", ""); v != "" {
		cfg.Output.UIDisabled = parseBool(v)
	}

	if v := getenv(EnvPrefix+"ADDR", ""); v != "" {
		cfg.Server.Addr = v
	}
	if v := getenv(EnvPrefix+"RATE_LIMIT", ""); v != "" {
		cfg.Server.RateLimitPerMinute = parseInt(v, cfg.Server.RateLimitPerMinute)
	}
	if v := getenv(EnvPrefix+"CORS_ORIGIN", ""); v != "" {
		cfg.Server.CORSOrigin = v
	}

	if v := getenv(EnvPrefix+"STORE_DRIVER", ""); v != "" {
		cfg.Store.Driver = v
	}
	if v := getenv(EnvPrefix+"STORE_DSN", ""); v != "" {
		cfg.Store.DSN = v
	}
	if v := getenv(EnvPrefix+"STORE_TTL_HOURS", ""); v != "" {
		cfg.Store.TTLHours = parseInt(v, cfg.Store.TTLHours)
	}

	if v := getenv(EnvPrefix+"VERIFIED_SITES", ""); v != "" {
		cfg.VerifiedSitesFile = v
	}

	// Resilience
	if v := getenv(EnvPrefix+"RESILIENCE_MAX_RETRIES", ""); v != "" {
		cfg.Resilience.MaxRetries = parseInt(v, cfg.Resilience.MaxRetries)
	}
	if v := getenv(EnvPrefix+"RESILIENCE_CB_ENABLED", ""); v != "" {
		cfg.Resilience.CircuitBreakerEnabled = parseBool(v)
	}
	if v := getenv(EnvPrefix+"RESILIENCE_CB_THRESHOLD", ""); v != "" {
		cfg.Resilience.CircuitBreakerThreshold = parseInt(v, cfg.Resilience.CircuitBreakerThreshold)
	}

	// API keys: nombre estándar o con prefijo
	cfg.APIKeys.GitHubToken = firstEnv(cfg.APIKeys.GitHubToken, EnvPrefix+"GITHUB_TOKEN", "GITHUB_TOKEN")
	cfg.APIKeys.PhishTankKey = firstEnv(cfg.APIKeys.PhishTankKey, EnvPrefix+"PHISHTANK_API_KEY", "PHISHTANK_API_KEY")
	cfg.APIKeys.AbuseIPDBKey = firstEnv(cfg.APIKeys.AbuseIPDBKey, EnvPrefix+"ABUSEIPDB_API_KEY", "ABUSEIPDB_API_KEY")

	// Colectores
	// Formato: TRUSTSCAN_COLLECTORS_GITHUB_ENABLED=false
	//          TRUSTSCAN_COLLECTORS_GITHUB_TIMEOUT=20   (segundos)
	for _, name := range CollectorNames {
		prefix := fmt.Sprintf("%sCOLLECTORS_%s_", EnvPrefix, strings.ToUpper(name))
		s := cfg.Collectors[name]
		changed := false

		if v := getenv(prefix+"ENABLED", ""); v != "" {
			enabled := parseBool(v)
			s.Enabled = &enabled
			changed = true
		}
		if v := getenv(prefix+"PRIORITY", ""); v != "" {
			s.Priority = parseInt(v, s.Priority)
			changed = true
		}
		if v := getenv(prefix+"TIMEOUT", ""); v != "" {
			s.Timeout = time.Duration(parseInt(v, int(s.Timeout.Seconds()))) * time.Second
			changed = true
		}
		if v := getenv(prefix+"RETRIES", ""); v != "" {
			s.Retries = parseInt(v, s.Retries)
			changed = true
		}
		if v := getenv(prefix+"RATELIMIT", ""); v != "" {
			s.RateLimit = parseInt(v, s.RateLimit)
			changed = true
		}

		if changed {
			if cfg.Collectors == nil {
				cfg.Collectors = make(map[string]CollectorSettings)
			}
			cfg.Collectors[name] = s
		}
	}
}

// loadFromFlags aplica solo los flags que el usuario cambió.
func loadFromFlags(fs *pflag.FlagSet, cfg *Config) error {
	var err error
	set := func(name string, apply func()) {
		if err == nil && fs.Lookup(name) != nil && fs.Changed(name) {
			apply()
		}
	}

	set("log-level", func() { cfg.Core.LogLevel, err = fs.GetString("log-level") })
	set("workers", func() { cfg.Core.Workers, err = fs.GetInt("workers") })
	set("timeout", func() { cfg.Core.TimeoutS, err = fs.GetInt("timeout") })
	set("collector-timeout", func() { cfg.Core.CollectorTimeoutS, err = fs.GetInt("collector-timeout") })
	set("scheduler", func() { cfg.Core.Scheduler, err = fs.GetString("scheduler") })
	set("output", func() { cfg.Output.Dir, err = fs.GetString("output") })
	set("format", func() { cfg.Output.Format, err = fs.GetString("format") })
	set("no-ui", func() { cfg.Output.UIDisabled, err = fs.GetBool("no-ui") })
	set("addr", func() { cfg.Server.Addr, err = fs.GetString("addr") })
	set("rate-limit", func() { cfg.Server.RateLimitPerMinute, err = fs.GetInt("rate-limit") })
	set("cors-origin", func() { cfg.Server.CORSOrigin, err = fs.GetString("cors-origin") })
	set("store", func() { cfg.Store.Driver, err = fs.GetString("store") })
	set("dsn", func() { cfg.Store.DSN, err = fs.GetString("dsn") })
	set("verified-sites", func() { cfg.VerifiedSitesFile, err = fs.GetString("verified-sites") })
	set("retries", func() { cfg.Resilience.MaxRetries, err = fs.GetInt("retries") })
	set("circuit-breaker", func() { cfg.Resilience.CircuitBreakerEnabled, err = fs.GetBool("circuit-breaker") })
	set("disable", func() {
		var names []string
		names, err = fs.GetStringSlice("disable")
		for _, name := range names {
			cfg.DisableCollector(strings.TrimSpace(name))
		}
	})

	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return nil
}

func normalize(c *Config) {
	if c.Core.Workers < 1 {
		c.Core.Workers = 1
	}
	if c.Core.TimeoutS < 0 {
		c.Core.TimeoutS = 0
	}
	if c.Core.CollectorTimeoutS <= 0 {
		c.Core.CollectorTimeoutS = 15
	}
	c.Core.LogLevel = strings.ToLower(strings.TrimSpace(c.Core.LogLevel))
	c.Core.Scheduler = strings.ToLower(strings.TrimSpace(c.Core.Scheduler))
	if c.Core.Scheduler == "" {
		c.Core.Scheduler = "priority"
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "yml" {
		c.Output.Format = "yaml"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "scans"
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.TTLHours <= 0 {
		c.Store.TTLHours = 24
	}
	if c.Server.ShutdownTimeoutS <= 0 {
		c.Server.ShutdownTimeoutS = 10
	}

	if c.Resilience.MaxRetries < 0 {
		c.Resilience.MaxRetries = 0
	}
	if c.Resilience.BackoffBase <= 0 {
		c.Resilience.BackoffBase = 500 * time.Millisecond
	}
	if c.Resilience.BackoffMultiplier < 1.0 {
		c.Resilience.BackoffMultiplier = 2.0
	}
	if c.Collectors == nil {
		c.Collectors = make(map[string]CollectorSettings)
	}
}

// Validate verifica los valores que no tienen un default razonable.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidConfig, c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("%w: store %s requires a DSN", domain.ErrInvalidConfig, c.Store.Driver)
	}
	switch c.Output.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("%w: %w: %q", domain.ErrInvalidConfig, domain.ErrUnsupportedFormat, c.Output.Format)
	}
	if c.Server.RateLimitPerMinute <= 0 {
		return fmt.Errorf("%w: rate limit must be positive", domain.ErrInvalidConfig)
	}
	switch c.Core.Scheduler {
	case "priority", "weighted":
	default:
		return fmt.Errorf("%w: unknown scheduler %q", domain.ErrInvalidConfig, c.Core.Scheduler)
	}
	switch c.Core.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", domain.ErrInvalidConfig, c.Core.LogLevel)
	}
	return nil
}

// DisableCollector marca un colector como deshabilitado.
func (c *Config) DisableCollector(name string) {
	if name == "" {
		return
	}
	if c.Collectors == nil {
		c.Collectors = make(map[string]CollectorSettings)
	}
	s := c.Collectors[name]
	disabled := false
	s.Enabled = &disabled
	c.Collectors[name] = s
}

// CollectorConfigs superpone los ajustes de usuario sobre los defaults
// del registry e inyecta las API keys en Custom.
func (c Config) CollectorConfigs(defaults map[string]ports.CollectorConfig) map[string]ports.CollectorConfig {
	out := make(map[string]ports.CollectorConfig, len(defaults))

	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cc := defaults[name]
		if cc.Timeout <= 0 {
			cc.Timeout = c.CollectorTimeout()
		}
		if cc.Retries == 0 {
			cc.Retries = c.Resilience.MaxRetries
		}
		custom := make(map[string]interface{}, len(cc.Custom))
		for k, v := range cc.Custom {
			custom[k] = v
		}

		if s, ok := c.Collectors[name]; ok {
			if s.Enabled != nil {
				cc.Enabled = *s.Enabled
			}
			if s.Timeout > 0 {
				cc.Timeout = s.Timeout
			}
			if s.Retries > 0 {
				cc.Retries = s.Retries
			}
			if s.RateLimit > 0 {
				cc.RateLimit = s.RateLimit
			}
			if s.Priority > 0 {
				cc.Priority = s.Priority
			}
			for k, v := range s.Custom {
				custom[k] = v
			}
		}

		switch name {
		case "github":
			setIfEmpty(custom, "token", c.APIKeys.GitHubToken)
		case "phishtank":
			setIfEmpty(custom, "api_key", c.APIKeys.PhishTankKey)
		case "abuseipdb":
			setIfEmpty(custom, "api_key", c.APIKeys.AbuseIPDBKey)
		}

		cc.Custom = custom
		out[name] = cc
	}
	return out
}

// ToJSON serializa la configuración a JSON sin secretos (útil para debugging).
func (c Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Timeout devuelve el deadline global del escaneo (0 = sin deadline).
func (c Config) Timeout() time.Duration {
	if c.Core.TimeoutS <= 0 {
		return 0
	}
	return time.Duration(c.Core.TimeoutS) * time.Second
}

// CollectorTimeout devuelve el timeout por defecto de cada colector.
func (c Config) CollectorTimeout() time.Duration {
	if c.Core.CollectorTimeoutS <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Core.CollectorTimeoutS) * time.Second
}

// StoreTTL devuelve la vida de un reporte persistido.
func (c Config) StoreTTL() time.Duration {
	return time.Duration(c.Store.TTLHours) * time.Hour
}

// Helpers

func setIfEmpty(custom map[string]interface{}, key, value string) {
	if value == "" {
		return
	}
	if s, ok := custom[key].(string); ok && s != "" {
		return
	}
	custom[key] = value
}

func firstEnv(current string, keys ...string) string {
	for _, k := range keys {
		if v := getenv(k, ""); v != "" {
			return v
		}
	}
	return current
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}
