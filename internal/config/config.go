package config

type Config interface {
	EnvConfig
	SessionConfig
	OAuthConfig
	RolesConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Session
	OAuth
	Roles
}

func New() Config {
	return mainConfig{}
}
