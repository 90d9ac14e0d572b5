package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the synrel configuration.
type Config struct {
	Project        string        `json:"project" mapstructure:"project"`
	LogLevel       string        `json:"logLevel" mapstructure:"loglevel"`
	TimeoutSeconds int           `json:"timeoutSeconds" mapstructure:"timeoutseconds"`
	Jira           JiraConfig    `json:"jira" mapstructure:"jira"`
	Synapse        SynapseConfig `json:"synapse" mapstructure:"synapse"`
}

// JiraConfig holds the issue tracker endpoint and credentials.
type JiraConfig struct {
	BaseURL string `json:"baseURL" mapstructure:"baseurl"`
	Email   string `json:"email,omitempty" mapstructure:"email"`

	// APIToken and Credential are environment-only.
	APIToken   string `json:"-" mapstructure:"apitoken"`
	Credential string `json:"-" mapstructure:"credential"`
}

// SynapseConfig holds the data platform endpoint and credentials.
type SynapseConfig struct {
	BaseURL   string `json:"baseURL" mapstructure:"baseurl"`
	AuthToken string `json:"-" mapstructure:"authtoken"`
}

const (
	DefaultProject        = "SYNPY"
	DefaultJiraBaseURL    = "https://sagebionetworks.jira.com"
	DefaultSynapseBaseURL = "https://repo-prod.prod.sagebase.org/repo/v1"
)

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Project:        DefaultProject,
		LogLevel:       "warn",
		TimeoutSeconds: 30,
		Jira: JiraConfig{
			BaseURL: DefaultJiraBaseURL,
		},
		Synapse: SynapseConfig{
			BaseURL: DefaultSynapseBaseURL,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for synrel.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "synrel"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot determine home directory")
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "synrel"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "synrel"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "synrel"), nil
	default:
		return filepath.Join(home, ".config", "synrel"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// envBindings maps config keys to the environment variables that can set
// them. The first non-empty variable wins.
var envBindings = map[string][]string{
	"project":           {"SYNREL_PROJECT"},
	"loglevel":          {"SYNREL_LOG_LEVEL"},
	"timeoutseconds":    {"SYNREL_TIMEOUT_SECONDS"},
	"jira.baseurl":      {"SYNREL_JIRA_URL", "JIRA_URL"},
	"jira.email":        {"SYNREL_JIRA_EMAIL", "JIRA_EMAIL"},
	"jira.apitoken":     {"SYNREL_JIRA_API_TOKEN", "JIRA_API_TOKEN"},
	"jira.credential":   {"SYNREL_JIRA_CREDENTIAL", "JIRA_CREDENTIAL"},
	"synapse.baseurl":   {"SYNREL_SYNAPSE_URL", "SYNAPSE_REPO_ENDPOINT"},
	"synapse.authtoken": {"SYNREL_SYNAPSE_AUTH_TOKEN", "SYNAPSE_AUTH_TOKEN"},
}

// overrideKeys maps CLI override names to config keys.
var overrideKeys = map[string]string{
	"project":        "project",
	"logLevel":       "loglevel",
	"timeoutSeconds": "timeoutseconds",
	"jiraURL":        "jira.baseurl",
	"synapseURL":     "synapse.baseurl",
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "reading config file")
		}
	}

	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, errors.Wrapf(err, "binding environment for %s", key)
		}
	}

	for name, val := range overrides {
		if val == "" {
			continue
		}
		key, ok := overrideKeys[name]
		if !ok {
			return Config{}, errors.Newf("unknown override: %s", name)
		}
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	cfg.Jira.BaseURL = strings.TrimRight(cfg.Jira.BaseURL, "/")
	cfg.Synapse.BaseURL = strings.TrimRight(cfg.Synapse.BaseURL, "/")
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("project", d.Project)
	v.SetDefault("loglevel", d.LogLevel)
	v.SetDefault("timeoutseconds", d.TimeoutSeconds)
	v.SetDefault("jira.baseurl", d.Jira.BaseURL)
	v.SetDefault("jira.email", "")
	v.SetDefault("jira.apitoken", "")
	v.SetDefault("jira.credential", "")
	v.SetDefault("synapse.baseurl", d.Synapse.BaseURL)
	v.SetDefault("synapse.authtoken", "")
}

// LoadFile loads config from the config file only. Returns defaults and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, errors.Wrap(err, "reading config file")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parsing config file")
	}
	return cfg, nil
}

// Save writes the config to the config file. Secret fields are omitted.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	return os.WriteFile(path, data, 0o600)
}

// ErrSecretKey is returned by SetField for credential keys.
var ErrSecretKey = errors.New("credentials cannot be stored in the config file")

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "project":
		cfg.Project = value
	case "logLevel":
		cfg.LogLevel = value
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrap(err, "timeoutSeconds must be an integer")
		}
		cfg.TimeoutSeconds = n
	case "jira.baseURL":
		cfg.Jira.BaseURL = strings.TrimRight(value, "/")
	case "jira.email":
		cfg.Jira.Email = value
	case "synapse.baseURL":
		cfg.Synapse.BaseURL = strings.TrimRight(value, "/")
	case "jira.apiToken", "jira.credential", "synapse.authToken":
		return errors.WithHint(ErrSecretKey, "export JIRA_API_TOKEN / SYNAPSE_AUTH_TOKEN or put them in a .env file instead")
	default:
		return errors.Newf("unknown config key: %s", key)
	}
	return nil
}
