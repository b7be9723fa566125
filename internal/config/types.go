package config

import "time"

// Storage backends for the credential store.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config is the top-level configuration for the moltyverse CLI.
type Config struct {
	// APIBaseURL is the auth and data backend.
	APIBaseURL string `yaml:"apiBaseURL" env:"MOLTYVERSE_API_BASE_URL" env-description:"Base URL of the MoltyVerse API"`

	// AppBaseURL is the web app; login and dashboard routes resolve against it.
	AppBaseURL string `yaml:"appBaseURL" env:"MOLTYVERSE_APP_BASE_URL" env-description:"Base URL of the MoltyVerse web app"`

	LogLevel string `yaml:"logLevel,omitempty" env:"MOLTYVERSE_LOG_LEVEL" env-description:"Log level (debug, info, warn, error)"`

	Storage StorageConfig `yaml:"storage"`
	OAuth   OAuthConfig   `yaml:"oauth"`
	HTTP    HTTPConfig    `yaml:"http"`
	Routes  RoutesConfig  `yaml:"routes"`
	Update  UpdateConfig  `yaml:"update"`
}

// StorageConfig selects where credentials are kept.
type StorageConfig struct {
	Backend string `yaml:"backend" env:"MOLTYVERSE_STORAGE_BACKEND" env-description:"Credential storage: file, sqlite or memory"`
	Dir     string `yaml:"dir,omitempty" env:"MOLTYVERSE_STORAGE_DIR" env-description:"Credential storage directory"`
}

// OAuthConfig configures browser sign-in.
type OAuthConfig struct {
	CallbackPort  int           `yaml:"callbackPort" env:"MOLTYVERSE_OAUTH_CALLBACK_PORT" env-description:"Local port receiving the sign-in redirect"`
	RedirectDelay time.Duration `yaml:"redirectDelay" env:"MOLTYVERSE_OAUTH_REDIRECT_DELAY" env-description:"Delay before returning to login after a failed sign-in"`
	MarkerTTL     time.Duration `yaml:"markerTTL" env:"MOLTYVERSE_OAUTH_MARKER_TTL" env-description:"How long a consumed one-time token is remembered"`

	// RedisAddr shares exchange markers between processes when set.
	RedisAddr string `yaml:"redisAddr,omitempty" env:"MOLTYVERSE_OAUTH_REDIS_ADDR" env-description:"Redis address for shared exchange markers"`
}

// HTTPConfig configures the API client.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"MOLTYVERSE_HTTP_TIMEOUT" env-description:"HTTP request timeout"`
}

// RoutesConfig names the app routes the client redirects to.
type RoutesConfig struct {
	Login     string `yaml:"login" env:"MOLTYVERSE_ROUTE_LOGIN"`
	Dashboard string `yaml:"dashboard" env:"MOLTYVERSE_ROUTE_DASHBOARD"`
}

// UpdateConfig configures self-update.
type UpdateConfig struct {
	Repository string `yaml:"repository" env:"MOLTYVERSE_UPDATE_REPOSITORY" env-description:"owner/name of the release repository"`
}
