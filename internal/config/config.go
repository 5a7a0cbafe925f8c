package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for hsdesk.
type Config struct {
	HostID     string           `toml:"host_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Profile    string           `toml:"profile"`
	Backends   []BackendConfig  `toml:"backends"`
	Window     WindowConfig     `toml:"window"`
	Frontend   FrontendConfig   `toml:"frontend"`
	API        APIConfig        `toml:"api"`
	Supervisor SupervisorConfig `toml:"supervisor"`
	Database   DatabaseConfig   `toml:"database"`
	Encryption EncryptionConfig `toml:"encryption"`
	Vaults     []VaultConfig    `toml:"vaults"`
}

// Restart policies for a backend process.
const (
	RestartNever     = "never"
	RestartOnFailure = "on-failure"
)

// BackendConfig describes one child process started by the supervisor.
type BackendConfig struct {
	Name             string            `toml:"name"`
	Command          string            `toml:"command"`
	Args             []string          `toml:"args"`
	WorkingDirectory string            `toml:"working_directory"`
	Port             int               `toml:"port,omitempty"`       // 0 for processes that serve no HTTP
	Env              map[string]string `toml:"env,omitempty"`        // added to the inherited environment
	Restart          string            `toml:"restart,omitempty"`    // "never" (default) or "on-failure"
	MaxRestarts      int               `toml:"max_restarts,omitempty"`
	HealthPath       string            `toml:"health_path,omitempty"` // polled until 2xx before the window opens
}

// WindowConfig describes the single top-level window.
type WindowConfig struct {
	URL string `toml:"url"`
	// Command is the argv used to open the window; "{url}" is replaced with URL.
	// Empty means the system opener (xdg-open, open, rundll32).
	Command     []string `toml:"command,omitempty"`
	KeepRunning bool     `toml:"keep_running"` // keep backends alive after the window closes
}

// FrontendConfig configures the local server for the built single-page frontend.
type FrontendConfig struct {
	Enabled   bool     `toml:"enabled"`
	Listen    string   `toml:"listen"`
	StaticDir string   `toml:"static_dir"`
	APITarget string   `toml:"api_target"` // backend that receives /api/ requests
	Ignore    []string `toml:"ignore,omitempty"`
	Metrics   bool     `toml:"metrics"`
}

// APIConfig configures the REST client used by the terminal screens.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// SupervisorConfig holds process supervision timings. Values are Go durations ("5s").
type SupervisorConfig struct {
	GracePeriod    string `toml:"grace_period"`
	ReadyTimeout   string `toml:"ready_timeout"`
	RestartBackoff string `toml:"restart_backoff"`
}

// DatabaseConfig represents configuration for the run journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// EncryptionConfig holds paths to the age key pair used for settings snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	Armor          bool   `toml:"armor"` // PEM-style ASCII output for age snapshots
}

// VaultConfig represents configuration for a snapshot vault.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible stores (MinIO)
	// Static credentials; when empty the default AWS credential chain is used.
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// Default timings used when a duration is empty or unparsable.
const (
	DefaultAPITimeout     = 10 * time.Second
	DefaultGracePeriod    = 5 * time.Second
	DefaultReadyTimeout   = 20 * time.Second
	DefaultRestartBackoff = time.Second
)

// TimeoutDuration returns the API client timeout.
func (c APIConfig) TimeoutDuration() time.Duration {
	return ParseDuration(c.Timeout, DefaultAPITimeout)
}

func (c SupervisorConfig) GracePeriodDuration() time.Duration {
	return ParseDuration(c.GracePeriod, DefaultGracePeriod)
}

func (c SupervisorConfig) ReadyTimeoutDuration() time.Duration {
	return ParseDuration(c.ReadyTimeout, DefaultReadyTimeout)
}

func (c SupervisorConfig) RestartBackoffDuration() time.Duration {
	return ParseDuration(c.RestartBackoff, DefaultRestartBackoff)
}

// ParseDuration parses s, returning fallback when s is empty, invalid or not positive.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// NewConfig creates a new Config with the provided values, default key paths and
// the backends of the named profile.
func NewConfig(hostID, baseDir, profile string) (*Config, error) {
	backends, err := ProfileBackends(profile, filepath.Join(baseDir, "backend"))
	if err != nil {
		return nil, err
	}

	apiPort := backends[0].Port
	return &Config{
		HostID:   hostID,
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		Profile:  profile,
		Backends: backends,
		Window: WindowConfig{
			URL: "http://localhost:3000",
		},
		Frontend: FrontendConfig{
			Enabled:   true,
			Listen:    "127.0.0.1:3000",
			StaticDir: filepath.Join(baseDir, "frontend", "build"),
			APITarget: fmt.Sprintf("http://127.0.0.1:%d", apiPort),
			Ignore:    []string{"*.map", ".DS_Store"},
			Metrics:   true,
		},
		API: APIConfig{
			BaseURL: fmt.Sprintf("http://127.0.0.1:%d", apiPort),
			Timeout: DefaultAPITimeout.String(),
		},
		Supervisor: SupervisorConfig{
			GracePeriod:    DefaultGracePeriod.String(),
			ReadyTimeout:   DefaultReadyTimeout.String(),
			RestartBackoff: DefaultRestartBackoff.String(),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "hsdesk.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "hsdesk.key"),
			Armor:          true,
		},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(baseDir, "snapshots")},
		},
	}, nil
}

// Launcher profiles.
const (
	ProfileSingle = "single"
	ProfileDual   = "dual"
)

// ProfileBackends returns the backend list for a launcher profile.
// "single" runs the REST backend on 8000; "dual" runs it on 8001 next to the gRPC server.
func ProfileBackends(profile, backendDir string) ([]BackendConfig, error) {
	fastapi := func(port int) BackendConfig {
		return BackendConfig{
			Name:             "FastAPI",
			Command:          "python",
			Args:             []string{"-m", "uvicorn", "main:application_fastapi", "--host", "127.0.0.1", "--port", fmt.Sprint(port)},
			WorkingDirectory: backendDir,
			Port:             port,
			Restart:          RestartNever,
			HealthPath:       "/status",
		}
	}

	switch profile {
	case ProfileSingle, "":
		return []BackendConfig{fastapi(8000)}, nil
	case ProfileDual:
		return []BackendConfig{
			fastapi(8001),
			{
				Name:             "gRPC",
				Command:          "python",
				Args:             []string{"grpc_server.py"},
				WorkingDirectory: backendDir,
				Restart:          RestartNever,
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown profile: %s", profile)
	}
}

// Validate checks the fields the launcher cannot run without.
func (c *Config) Validate() error {
	if len(c.Backends) == 0 {
		return fmt.Errorf("no backends configured")
	}
	seen := make(map[string]bool, len(c.Backends))
	for i, b := range c.Backends {
		if b.Name == "" {
			return fmt.Errorf("backend %d: name is required", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("backend %q: duplicate name", b.Name)
		}
		seen[b.Name] = true
		if b.Command == "" {
			return fmt.Errorf("backend %q: command is required", b.Name)
		}
		switch b.Restart {
		case "", RestartNever, RestartOnFailure:
		default:
			return fmt.Errorf("backend %q: unknown restart policy %q", b.Name, b.Restart)
		}
		if b.MaxRestarts < 0 {
			return fmt.Errorf("backend %q: max_restarts must not be negative", b.Name)
		}
	}
	if c.Window.URL == "" {
		return fmt.Errorf("window url is required")
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
