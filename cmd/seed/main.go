package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/project-feed/config"
	"github.com/oksasatya/project-feed/pkg/helpers"
)

type demoUser struct {
	email    string
	password string
	name     string
}

// two users so ownership checks can be tried by hand
var demoUsers = []demoUser{
	{email: "ada@example.com", password: "password123", name: "Ada"},
	{email: "bob@example.com", password: "password123", name: "Bob"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, u := range demoUsers {
		hash, err := helpers.HashPassword(u.password)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		var id string
		err = db.QueryRow(`
			INSERT INTO users (email, password_hash, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
			RETURNING id::text
		`, u.email, hash, u.name).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.email, err)
		}
		fmt.Printf("seeded user: id=%s email=%s name=%s password=%s\n", id, u.email, u.name, u.password)
	}
}
