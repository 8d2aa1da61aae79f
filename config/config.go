package config

import (
	"encoding/json"
	"log"
	"os"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" or "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	Log struct {
		Level  string `json:"level"`  // debug, info, warn, error
		Format string `json:"format"` // text or json
	} `json:"log"`

	Engine struct {
		RateLimitPerMinute int `json:"rate_limit_per_minute"`
		AITimeoutSeconds   int `json:"ai_timeout_seconds"`
		SendTimeoutSeconds int `json:"send_timeout_seconds"`
	} `json:"engine"`
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	// defaults (pra evitar nil/zero chato)
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Engine.RateLimitPerMinute <= 0 {
		c.Engine.RateLimitPerMinute = 20
	}
	if c.Engine.AITimeoutSeconds <= 0 {
		c.Engine.AITimeoutSeconds = 15
	}
	if c.Engine.SendTimeoutSeconds <= 0 {
		c.Engine.SendTimeoutSeconds = 30
	}

	return c
}
