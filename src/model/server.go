package model

import "time"

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8000"`
	UploadDir       string        `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"90s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}
