package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"tixup/internal/config"
	"tixup/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	store, err := services.NewR2ReceiptStore(ctx, cfg.R2)
	if err != nil {
		log.Fatalf("R2 configuration validation failed: %v", err)
	}

	fmt.Println("R2 configuration is valid")
	fmt.Printf("Receipt Storage:\n")
	fmt.Printf("  Account ID: %s\n", cfg.R2.AccountID)
	fmt.Printf("  Bucket Name: %s\n", store.Bucket())
	fmt.Printf("  Receipt Backend: %s\n", cfg.Receipts.Backend)
	fmt.Printf("  Local Directory: %s\n", cfg.Receipts.LocalDir)

	// Check if we should set up the bucket
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		fmt.Println("\nSetting up R2 bucket...")

		created, err := store.EnsureBucket(ctx)
		if err != nil {
			log.Fatalf("Failed to set up R2 bucket: %v", err)
		}

		if created {
			fmt.Println("R2 bucket created successfully!")
		} else {
			fmt.Println("R2 bucket already exists")
		}
	} else {
		fmt.Println("\nTo set up the R2 bucket, run: go run cmd/setup-r2/main.go setup")
	}
}
