// Command main runs the database seeder for Stoop.
package main

import (
	"flag"
	"log"

	"stoop/internal/config"
	"stoop/internal/database"
	"stoop/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numListings := flag.Int("listings", 100, "Number of listings to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("fast", false, "Skip bcrypt hashing (dev only, logins will not work)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumListings: *numListings,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *skipBcrypt,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
