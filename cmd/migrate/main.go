// cmd/migrate/main.go creates the schema and the first-run data.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/services"
)

func main() {
	seed := flag.Bool("seed", true, "create the super admin and default catalog when missing")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	conf := config.LoadSettings()
	config.InitDB()

	if err := config.Migrate(config.DB); err != nil {
		log.Fatal("Migration failed:", err)
	}
	log.Println("Schema is up to date")

	if !*seed {
		return
	}
	res, err := services.NewSeedService(config.DB).Run(context.Background(), services.SeedOptions{
		AdminEmail:    conf.SeedAdminEmail,
		AdminPassword: conf.SeedAdminPassword,
	})
	if err != nil {
		log.Fatal("Seeding failed:", err)
	}
	if res.AdminCreated {
		log.Printf("Created super admin %s", conf.SeedAdminEmail)
	}
	log.Printf("Seeded %d document categories and %d rubric criteria", res.Categories, res.Criteria)
}
