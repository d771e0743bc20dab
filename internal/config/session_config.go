package config

type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendFile   StoreBackend = "file"
	StoreBackendRedis  StoreBackend = "redis"
)

type SessionConfig interface {
	GetStoreBackend() StoreBackend
	GetSessionKey() string
	GetLoginNameKey() string
	GetRedisAddr() string
	GetSealKey() string
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetStoreBackend() StoreBackend {
	switch backend := StoreBackend(GetEnv("SESSION_STORE", string(StoreBackendMemory))); backend {
	case StoreBackendFile, StoreBackendRedis:
		return backend
	default:
		return StoreBackendMemory
	}
}

// GetSessionKey is the fixed key the serialized session record lives under
func (Session) GetSessionKey() string {
	return GetEnv("SESSION_KEY", "webadmin_state")
}

func (Session) GetLoginNameKey() string {
	return GetEnv("LOGIN_NAME_KEY", "webadmin_login_name")
}

func (Session) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

// GetSealKey is a hex encoded 32 byte key; when set the stored record is sealed at rest
func (Session) GetSealKey() string {
	return GetEnv("SESSION_SEAL_KEY", "")
}
