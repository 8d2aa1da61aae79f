package main

import (
	"os"
	"time"

	"botique/config"
	"botique/db"
	"botique/engine"
	"botique/router"
	"botique/tools"
	"botique/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env é opcional; em produção as variáveis vêm do ambiente.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.json"
	}
	cfg := config.Get(configPath)

	setupLogging(cfg)

	db.SetConfigurations(cfg)
	database, err := db.Connect()
	if err != nil {
		logrus.WithError(err).Fatal("could not connect to database")
	}
	defer database.Close()

	sender := tools.NewWhatsAppSender(time.Duration(cfg.Engine.SendTimeoutSeconds) * time.Second)
	ai := tools.NewOpenAIResponder()

	eng := engine.New(database, sender, ai,
		engine.WithRateLimit(cfg.Engine.RateLimitPerMinute),
		engine.WithAITimeout(time.Duration(cfg.Engine.AITimeoutSeconds)*time.Second),
	)

	workers.StartEventProcessor(database, eng)

	r := gin.New()
	r.Use(db.SetDBtoContext(database))
	router.Initialize(r, cfg)

	logrus.WithField("port", cfg.ApiPort).Info("botique listening")
	if err := r.Run(":" + cfg.ApiPort); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func setupLogging(cfg config.Configuration) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
