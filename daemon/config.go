// Package daemon wires the stores, trust policy, broker and metrics
// into the running process and owns its lifecycle: deterministic
// startup, signal-driven graceful shutdown.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the daemon's resolved configuration. Values are layered:
// built-in defaults, then an optional sgnd.yaml bootstrap file, then
// environment variables. SGN_DATA_DIR supplies defaults for every
// per-component path that is not set explicitly.
type Config struct {
	DataDir      string
	HTTPPort     int
	DBPath       string
	KUsDir       string
	LogsDir      string
	TrustPath    string
	EdgesDBPath  string
	OutboxDBPath string

	// BroadcastEnabled gates the outbox delivery scheduler. Publishes
	// always enqueue; with broadcast off the queue simply accumulates
	// until /admin/drain or a restart with broadcast on.
	BroadcastEnabled bool
	EventsOrigin     string
	EventsBearer     string

	TrustMode string
}

// fileConfig is the optional sgnd.yaml bootstrap shape. Every field is
// overridable by the corresponding environment variable, except that
// SGN_BROADCAST can only turn broadcast off, not back on.
type fileConfig struct {
	HTTPPort     int    `yaml:"http_port"`
	DataDir      string `yaml:"data_dir"`
	TrustMode    string `yaml:"trust_mode"`
	EventsOrigin string `yaml:"events_origin"`
	EventsBearer string `yaml:"events_bearer"`
	Broadcast    *bool  `yaml:"broadcast"`
}

// LoadConfig resolves the daemon configuration. The bootstrap file is
// looked up at SGN_CONFIG, falling back to ./sgnd.yaml; a missing file
// is not an error, a malformed one is.
func LoadConfig() (Config, error) {
	fc, err := loadFileConfig(getenv("SGN_CONFIG", "sgnd.yaml"))
	if err != nil {
		return Config{}, err
	}

	dataDir := getenv("SGN_DATA_DIR", orDefault(fc.DataDir, "./sgn-data"))

	broadcast := true
	if fc.Broadcast != nil {
		broadcast = *fc.Broadcast
	}
	if os.Getenv("SGN_BROADCAST") == "off" {
		broadcast = false
	}

	cfg := Config{
		DataDir:          dataDir,
		HTTPPort:         getenvInt("SGN_HTTP_PORT", orDefaultInt(fc.HTTPPort, 8787)),
		DBPath:           getenv("SGN_DB", filepath.Join(dataDir, "sgn.db")),
		KUsDir:           getenv("SGN_KUS_DIR", filepath.Join(dataDir, "kus")),
		LogsDir:          getenv("SGN_LOGS_DIR", filepath.Join(dataDir, "logs")),
		TrustPath:        getenv("SGN_TRUST_PATH", filepath.Join(dataDir, "trust.json")),
		EdgesDBPath:      getenv("SGN_EDGES_DB", filepath.Join(dataDir, "sgn-edges.db")),
		OutboxDBPath:     filepath.Join(dataDir, "sgn-outbox.db"),
		BroadcastEnabled: broadcast,
		EventsOrigin:     getenv("SGN_EVENTS_ORIGIN", fc.EventsOrigin),
		EventsBearer:     getenv("SGN_EVENTS_BEARER", fc.EventsBearer),
		TrustMode:        getenv("SGN_TRUST_MODE", orDefault(fc.TrustMode, "warn")),
	}
	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fc, nil
	}
	if err != nil {
		return fc, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

func getenv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getenvInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orDefaultInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
