// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Workspace identifies one tenant (a city/brand) content is extracted from.
type Workspace struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Upstream   UpstreamConfig    `mapstructure:"upstream"`
	Creds      CredentialsConfig `mapstructure:"credentials"`
	Sheets     SheetsConfig      `mapstructure:"sheets"`
	PubSub     PubSubConfig      `mapstructure:"pubsub"`
	Dumps      DumpConfig        `mapstructure:"dumps"`
	Webhook    WebhookConfig     `mapstructure:"webhook"`
	Logging    LoggingConfig     `mapstructure:"logging"`
	Workspaces []Workspace       `mapstructure:"workspaces"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// UpstreamConfig governs access to the MyCreator backend API.
type UpstreamConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	RequestDelayMs   int    `mapstructure:"request_delay_ms"`
	WorkspaceDelayMs int    `mapstructure:"workspace_delay_ms"`
	PostsPerPage     int    `mapstructure:"posts_per_page"`
	Timezone         string `mapstructure:"timezone"`
}

// CredentialsConfig holds the two alternative upstream credential shapes.
// Either a pre-obtained session (cookie + token) or email/password for
// automatic login must be configured.
type CredentialsConfig struct {
	Cookie   string `mapstructure:"cookie"`
	Token    string `mapstructure:"token"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// SheetsConfig configures the Google Sheets sink.
type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	PostsTab        string `mapstructure:"posts_tab"`
	WriteMode       string `mapstructure:"write_mode"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	UploadDelayMs   int    `mapstructure:"upload_delay_ms"`
}

// PubSubConfig holds metadata for run-completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// DumpConfig controls raw payload dumps used for schema diagnosis.
type DumpConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// WebhookConfig points at an optional report-refresh hook pinged after upload.
type WebhookConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. A .env file in the working
// directory is honored before environment variables are read.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CREATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("upstream.base_url", "https://mycreator.myside.com.br")
	v.SetDefault("upstream.timeout_seconds", 30)
	v.SetDefault("upstream.request_delay_ms", 400)
	v.SetDefault("upstream.workspace_delay_ms", 800)
	v.SetDefault("upstream.posts_per_page", 40)
	v.SetDefault("upstream.timezone", "America/Sao_Paulo")
	v.SetDefault("sheets.posts_tab", "dados_brutos")
	v.SetDefault("sheets.write_mode", "overwrite")
	v.SetDefault("sheets.upload_delay_ms", 5000)
	v.SetDefault("dumps.backend", "local")
	v.SetDefault("dumps.base_dir", "debug")
	v.SetDefault("webhook.timeout_seconds", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. Missing
// credentials of both shapes is the only startup-fatal condition mandated by
// the pipeline's failure policy.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url must be set")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return fmt.Errorf("upstream.timeout_seconds must be > 0")
	}
	if c.Upstream.PostsPerPage <= 0 {
		return fmt.Errorf("upstream.posts_per_page must be > 0")
	}
	if !c.Creds.HasSession() && !c.Creds.CanAutoLogin() {
		return fmt.Errorf("credentials: set cookie+token or email+password")
	}
	if len(c.Workspaces) == 0 {
		return fmt.Errorf("workspaces must not be empty")
	}
	for i, ws := range c.Workspaces {
		if ws.ID == "" {
			return fmt.Errorf("workspaces[%d].id must be set", i)
		}
	}
	if c.Sheets.WriteMode != "overwrite" && c.Sheets.WriteMode != "append" {
		return fmt.Errorf("sheets.write_mode must be overwrite or append, got %q", c.Sheets.WriteMode)
	}
	switch c.Dumps.Backend {
	case "local", "gcs", "memory":
	default:
		return fmt.Errorf("dumps.backend must be local, gcs or memory, got %q", c.Dumps.Backend)
	}
	if c.Dumps.Enabled && c.Dumps.Backend == "gcs" && c.Dumps.GCSBucket == "" {
		return fmt.Errorf("dumps.gcs_bucket must be set when gcs dumps are enabled")
	}
	return nil
}

// HasSession reports whether a pre-obtained cookie+token pair is configured.
func (c CredentialsConfig) HasSession() bool {
	return c.Cookie != "" && c.Token != ""
}

// CanAutoLogin reports whether email/password login is configured.
func (c CredentialsConfig) CanAutoLogin() bool {
	return c.Email != "" && c.Password != ""
}

// Timeout converts the upstream timeout into a duration.
func (c UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RequestDelay is the minimum spacing between upstream requests.
func (c UpstreamConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMs) * time.Millisecond
}

// WorkspaceDelay is the pause between workspace extractions.
func (c UpstreamConfig) WorkspaceDelay() time.Duration {
	return time.Duration(c.WorkspaceDelayMs) * time.Millisecond
}

// UploadDelay is the pause between sink table uploads.
func (c SheetsConfig) UploadDelay() time.Duration {
	return time.Duration(c.UploadDelayMs) * time.Millisecond
}

// Timeout bounds the webhook ping.
func (c WebhookConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
