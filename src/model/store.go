package model

// StoreConfig selects the context store backend
type StoreConfig struct {
	Driver   string `envconfig:"DRIVER" default:"file"` // file, redis, memory
	FilePath string `envconfig:"FILE_PATH" default:"luna_memory.json"`
	RedisURL string `envconfig:"REDIS_URL"`
}
