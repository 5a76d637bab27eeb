// Command migrate applies the database schema. Production deploys run this
// explicitly; development servers migrate on startup.
package main

import (
	"log"

	"bazaarhub/internal/config"
	"bazaarhub/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("schema migrated")
}
