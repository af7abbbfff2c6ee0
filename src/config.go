package src

import (
	"fmt"

	"luna_companion/src/model"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogConfig    model.LogConfig    `envconfig:"LOG"`
	LLMConfig    model.LLMConfig    `envconfig:"LLM"`
	StoreConfig  model.StoreConfig  `envconfig:"STORE"`
	ServerConfig model.ServerConfig `envconfig:"SERVER"`
	PersonaFile  string             `envconfig:"CONFIG_FILE" default:"config.yaml"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	return &config, nil
}
