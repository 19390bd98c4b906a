package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"tixup/internal/config"
	"tixup/internal/database"
	"tixup/internal/logger"
	"tixup/internal/repositories"
)

func main() {
	olderThan := flag.Duration("older-than", 0, "Remove carts untouched for this long (defaults to CART_TTL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	age := *olderThan
	if age <= 0 {
		age = cfg.Cart.TTL
	}

	db, err := database.NewConnection(database.Config{
		Driver:   cfg.Database.Driver,
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}, zapLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	cutoff := time.Now().Add(-age)
	removed, err := repositories.NewSQLCartProvider(db.DB).PurgeStaleCarts(context.Background(), cutoff)
	if err != nil {
		log.Fatalf("Failed to purge carts: %v", err)
	}

	fmt.Printf("Removed %d carts not updated since %s\n", removed, cutoff.Format(time.RFC3339))
}
