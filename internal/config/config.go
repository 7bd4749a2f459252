package config

type Config interface {
	EnvConfig
	AuthConfig
	ProviderConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetDatabaseURL() string
	GetRedisAddr() string
}

type mainConfig struct {
	EnvVars
	Auth
	Provider
}

func New() Config {
	return mainConfig{}
}
