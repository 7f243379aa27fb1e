package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/controllers"
	"eteeap-portfolio-api/middleware"
	"eteeap-portfolio-api/routes"
	"eteeap-portfolio-api/services"
	"eteeap-portfolio-api/storage"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	conf := config.LoadSettings()

	logFile, logWriter := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	if conf.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logWriter
	gin.DefaultErrorWriter = logWriter

	config.InitDB()

	store, err := storage.NewLocalStore(conf.UploadPath, conf.UploadMaxBytes)
	if err != nil {
		log.Fatal("Failed to prepare upload directory:", err)
	}

	var channels []services.Channel
	if conf.RabbitMQURL != "" {
		queue, err := services.DialNotificationQueue(conf.RabbitMQURL, conf.NotifyQueue, conf.AppBaseURL)
		if err != nil {
			log.Printf("Warning: notification queue unavailable: %v", err)
		} else {
			defer queue.Close()
			channels = append(channels, queue)
			log.Printf("Notification e-mails queued on %s", conf.NotifyQueue)
		}
	} else if config.MailConfigured() {
		channels = append(channels, services.NewMailChannel(config.SendMail, conf.AppBaseURL))
		log.Println("Notification e-mails sent inline over SMTP")
	}
	controllers.Configure(services.NewNotificationService(config.DB, channels...), store)

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logWriter))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware())

	routes.SetupRoutes(router)

	port := conf.ServerPort
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if conf.IsProduction() {
		log.Printf("Running in production mode")
	} else {
		log.Printf("Running in development mode")
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
