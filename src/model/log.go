package model

// LogConfig holds configuration for the global logger
type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Format     string `envconfig:"FORMAT" default:"console"` // console or json
	Output     string `envconfig:"OUTPUT" default:"stdout"`  // stdout, stderr or file
	FilePath   string `envconfig:"FILE_PATH" default:"logs/luna.log"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"rfc3339"`
}
