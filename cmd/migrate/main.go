package main

import (
	"log"

	"ai-chat-be/internal/config"
	"ai-chat-be/pkg/database"
)

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	if err := database.EnsureSchema(gormDB); err != nil {
		log.Panicf("Migration failed: %v", err)
	}

	log.Println("✅ Schema migrated")
}
