package config

import "time"

const (
	DefaultAPIBaseURL     = "https://api.moltyverse.app"
	DefaultAppBaseURL     = "https://moltyverse.app"
	DefaultLoginRoute     = "/login"
	DefaultDashboardRoute = "/dashboard"
	DefaultRepository     = "moltyverse/moltyverse"
)

// GetDefaultConfig returns the configuration used when nothing is set.
func GetDefaultConfig() Config {
	return Config{
		APIBaseURL: DefaultAPIBaseURL,
		AppBaseURL: DefaultAppBaseURL,
		LogLevel:   "info",
		Storage: StorageConfig{
			Backend: StorageFile,
		},
		OAuth: OAuthConfig{
			CallbackPort:  3000,
			RedirectDelay: 2 * time.Second,
			MarkerTTL:     10 * time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Routes: RoutesConfig{
			Login:     DefaultLoginRoute,
			Dashboard: DefaultDashboardRoute,
		},
		Update: UpdateConfig{
			Repository: DefaultRepository,
		},
	}
}
