package main

import (
	"log"
	"os"

	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/model"
	"clash-rulesync/pkg/database"
	"clash-rulesync/pkg/ruletext"

	"github.com/joho/godotenv"
)

// Creates the rule_documents table for RULES_BACKEND=postgres and seeds an
// empty list for each document that does not exist yet.
func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect and AutoMigrate
	db, err := database.NewGormDBFromDSN(dsn, os.Getenv("DB_LOG_LEVEL"), &model.RuleDocument{})
	if err != nil {
		log.Fatal("Error: Failed to connect or migrate:", err)
	}
	log.Println("Step 1: rule_documents table is up to date")

	// 3. Seed missing documents
	for _, c := range []entity.Classification{entity.ClassificationProxy, entity.ClassificationDirect} {
		doc := model.RuleDocument{Key: c.Key()}
		res := db.Where(model.RuleDocument{Key: c.Key()}).
			Attrs(model.RuleDocument{Content: ruletext.EmptyDocument}).
			FirstOrCreate(&doc)
		if res.Error != nil {
			log.Fatalf("Error: Failed to seed %s: %v", c.Key(), res.Error)
		}
		if res.RowsAffected > 0 {
			log.Printf("Step 2: seeded %s with %q", c.Key(), ruletext.EmptyDocument)
		} else {
			log.Printf("Step 2: %s already present (%d bytes)", c.Key(), len(doc.Content))
		}
	}

	log.Println("Migration completed")
}
