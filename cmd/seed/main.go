// Command seed creates the initial admin account. Run once against a fresh
// database:
//
//	ADMIN_LOGIN=admin ADMIN_PASSWORD=... go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"eventphoto-backend/internal/config"
	"eventphoto-backend/internal/database"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	login := os.Getenv("ADMIN_LOGIN")
	password := os.Getenv("ADMIN_PASSWORD")
	if login == "" || password == "" {
		log.Fatal("ADMIN_LOGIN and ADMIN_PASSWORD are required")
	}

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()

	db, err := postgres.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user, err := db.CreateUser(context.Background(), &models.User{
		Fullname: "Administrator",
		Email:    login + "@local",
		Login:    login,
		Password: string(hash),
		IsAdmin:  true,
	})
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			log.Fatalf("Admin %q already exists", login)
		}
		log.Fatalf("Failed to create admin: %v", err)
	}

	log.Printf("Created admin user %q (id %d)", user.Login, user.ID)
}
