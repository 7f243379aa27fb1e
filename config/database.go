package config

import (
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"eteeap-portfolio-api/models"
)

var DB *gorm.DB

// InitDB opens the MySQL connection described by Conf and stores it in DB.
func InitDB() *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		Conf.DBUsername,
		Conf.DBPassword,
		Conf.DBHost,
		Conf.DBPort,
		Conf.DBDatabase,
	)

	db, err := gorm.Open(mysql.Open(dsn), GormConfig())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db
	log.Println("Database connected successfully")
	return DB
}

// GormConfig returns the shared GORM configuration. SQL statements are only
// logged outside production or when DEBUG_SQL=true.
func GormConfig() *gorm.Config {
	logLevel := logger.Info
	if Conf.IsProduction() && !Conf.DebugSQL {
		logLevel = logger.Warn
	}

	return &gorm.Config{
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{LogLevel: logLevel},
		),
	}
}

// Migrate creates or updates every table used by the API.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.DocumentCategory{},
		&models.RubricCriteria{},
		&models.Portfolio{},
		&models.PortfolioDocument{},
		&models.PortfolioAssignment{},
		&models.Evaluation{},
		&models.EvaluationScore{},
		&models.PortfolioStatusHistory{},
		&models.Notification{},
	)
}
