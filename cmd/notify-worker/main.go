// cmd/notify-worker/main.go sends the notification e-mails queued by the API.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	conf := config.LoadSettings()
	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	if conf.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is required")
	}
	if !config.MailConfigured() {
		log.Fatal("SMTP_HOST and SMTP_FROM are required")
	}

	queue, err := services.DialNotificationQueue(conf.RabbitMQURL, conf.NotifyQueue, conf.AppBaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer queue.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Waiting for notification e-mails on %s", conf.NotifyQueue)
	err = queue.Consume(ctx, func(email services.Email) error {
		if err := config.SendMail(email.To, email.Subject, email.HTML); err != nil {
			return err
		}
		log.Printf("Sent notification %d to %v", email.NotificationID, email.To)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
	log.Println("Notify worker stopped")
}
