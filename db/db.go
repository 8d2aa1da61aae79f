package db

import (
	"os"
	"path/filepath"

	"botique/config"
	"botique/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/sirupsen/logrus"
)

var conf config.Configuration

func SetConfigurations(configuration config.Configuration) {
	conf = configuration
}

// Connect abre conexão com DB (sqlite3 por padrão) e faz automigrate básico.
// Para habilitar automigrate em ambientes de dev, exporte AUTOMIGRATE=1.
func Connect() (*gorm.DB, error) {
	database := conf.Database
	if database == "" {
		database = "sqlite3"
	}

	var (
		db  *gorm.DB
		err error
	)

	if database == "postgres" || database == "postgresql" {
		logrus.Info("connecting to postgresql...")
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass
		db, err = gorm.Open("postgres", path)
	} else {
		logrus.Info("connecting to sqlite3...")
		dir := filepath.Dir("db/database.db")
		db, err = gorm.Open("sqlite3", dir+"/database.db")
	}

	if err != nil {
		logrus.WithError(err).Error("database connection failed")
		return nil, err
	}

	if getenv("DB_LOG", "0") == "1" {
		db.LogMode(true)
	}

	if getenv("AUTOMIGRATE", "0") == "1" {
		Migrate(db)
	}

	return db, nil
}

// Migrate runs automigrate for every model. Also used by tests against
// in-memory sqlite databases.
func Migrate(db *gorm.DB) {
	db.AutoMigrate(
		&models.Tenant{},
		&models.Customer{},
		&models.Message{},
		&models.AutoFlow{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.InboundEvent{},
		&models.TenantStat{},
	)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
