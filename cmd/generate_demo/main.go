// Command generate_demo creates a demo database with a few public domain books
// saved for the local user.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/database"
	"github.com/mrlokans/bookinfo/internal/database/favourites"
	"github.com/mrlokans/bookinfo/internal/logger"
)

const defaultDemoDatabasePath = "./demo/demo.db"

type demoBook struct {
	title       string
	authors     []string
	published   string
	description string
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	l, err := logger.Init(config.Log{Level: "info"})
	if err != nil {
		panic(err)
	}
	defer l.Sync()

	l.Info("Generating demo database", zap.String("path", *dbPath))

	saved, err := generate(context.Background(), *dbPath)
	if err != nil {
		l.Fatal("Failed to generate demo database", zap.Error(err))
	}

	l.Info("Demo database generated successfully", zap.Int("books", saved))
}

// generate recreates the database at dbPath, creating missing parent
// directories, and returns how many demo books were saved.
func generate(ctx context.Context, dbPath string) (int, error) {
	// Start fresh
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("remove existing demo database: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return 0, fmt.Errorf("create demo directory: %w", err)
	}

	db, err := database.NewDatabase(dbPath)
	if err != nil {
		return 0, fmt.Errorf("create database: %w", err)
	}
	defer db.Close()

	repo := favourites.NewRepository(db.DB)
	count := 0
	for _, b := range publicDomainBooks() {
		published, description := b.published, b.description
		saved, err := repo.Save(ctx, config.LocalUserID, favourites.BookInput{
			Title:         b.title,
			Authors:       b.authors,
			PublishedDate: &published,
			Description:   &description,
		})
		if err != nil {
			logger.L.Error("Failed to save book", zap.String("title", b.title), zap.Error(err))
			continue
		}
		logger.L.Info("Saved", zap.String("id", saved.ID), zap.String("title", b.title))
		count++
	}
	return count, nil
}

func publicDomainBooks() []demoBook {
	return []demoBook{
		{
			title:       "Meditations",
			authors:     []string{"Marcus Aurelius"},
			published:   "180",
			description: "Private notes of a Roman emperor on Stoic philosophy.",
		},
		{
			title:       "Pride and Prejudice",
			authors:     []string{"Jane Austen"},
			published:   "1813",
			description: "Elizabeth Bennet and Mr. Darcy misjudge each other.",
		},
		{
			title:       "The Adventures of Sherlock Holmes",
			authors:     []string{"Arthur Conan Doyle"},
			published:   "1892",
			description: "Twelve stories of the consulting detective.",
		},
		{
			title:       "The Communist Manifesto",
			authors:     []string{"Karl Marx", "Friedrich Engels"},
			published:   "1848",
			description: "A political pamphlet in four sections.",
		},
	}
}
