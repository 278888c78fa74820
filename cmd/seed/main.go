// Package main provides a tool to seed a store with demo users and note trees.
//
// Each seeded user gets a few notebooks, some nested, filled with notes, so
// that listing, editing and search can be tried against realistic data.
//
// Usage:
//
//	DATA_PATH=~/Freenote/data go run ./cmd/seed
//	go run ./cmd/seed -backend sqlite -users 5 -notes 8
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/freenote/freenote-server/internal/config"
	"github.com/freenote/freenote-server/internal/di/providers"
	"github.com/freenote/freenote-server/internal/logger"
	"github.com/freenote/freenote-server/internal/notetree"
	"github.com/freenote/freenote-server/internal/service"
)

var (
	dataPath     = flag.String("data", defaultDataPath(), "Server data path")
	backend      = flag.String("backend", config.BackendBadger, "Store backend (badger, sqlite)")
	userCount    = flag.Int("users", 3, "Number of demo users to seed")
	notesPerBook = flag.Int("notes", 4, "Notes per notebook")
)

var notebookTitles = []string{"Work", "Recipes", "Travel", "Reading List", "Ideas", "Journal"}

var noteSamples = []struct{ title, content string }{
	{"Standup", "Discussed the release checklist and the flaky integration job."},
	{"Pancakes", "200g flour, 2 eggs, 300ml milk. Rest the batter for 20 minutes."},
	{"Lisbon", "Tram 28 early in the morning. Pastéis de Belém before noon."},
	{"Dune", "Re-read the appendix on the ecology of Arrakis."},
	{"Side project", "A CLI that turns meeting notes into calendar follow-ups."},
	{"Monday", "Slept badly, long walk helped. Call the dentist."},
	{"Groceries", "Milk, coffee beans, lemons, basil."},
	{"Retro", "Too many context switches. Try no-meeting Wednesdays."},
}

func main() {
	flag.Parse()

	log.SetFlags(0)
	st, path, err := providers.OpenStore(*backend, *dataPath, logger.Discard())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	fmt.Printf("Seeding %s store at: %s\n", *backend, path)

	// Search stays detached; the server rebuilds its index on startup when
	// the index is empty.
	notes := service.NewNoteService(st, nil, service.DefaultWriteRetries, nil)
	ctx := context.Background()

	for i := 1; i <= *userCount; i++ {
		userID := fmt.Sprintf("demo-%d", i)
		email := fmt.Sprintf("demo%d@example.com", i)

		created, err := notes.EnsureUser(ctx, userID, email)
		if err != nil {
			log.Fatalf("Failed to create user %s: %v", userID, err)
		}
		if !created {
			fmt.Printf("  %s already exists, adding to existing tree\n", userID)
		}

		count, err := seedUser(ctx, notes, userID)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", userID, err)
		}
		fmt.Printf("  %s: %d nodes added\n", userID, count)
	}

	fmt.Println("Done.")
}

// seedUser adds two or three notebooks below the root, the first with a
// nested notebook, and fills every notebook with notes.
func seedUser(ctx context.Context, notes *service.NoteService, userID string) (int, error) {
	added := 0
	books := 2 + rand.IntN(2)

	for b := range books {
		bookID, err := addTitled(ctx, notes, userID, 0, notetree.KindNotebook, pick(notebookTitles), "")
		if err != nil {
			return added, err
		}
		added++

		parents := []uint64{bookID}
		if b == 0 {
			nestedID, err := addTitled(ctx, notes, userID, bookID, notetree.KindNotebook, "Archive", "")
			if err != nil {
				return added, err
			}
			added++
			parents = append(parents, nestedID)
		}

		for _, parent := range parents {
			for range *notesPerBook {
				sample := noteSamples[rand.IntN(len(noteSamples))]
				if _, err := addTitled(ctx, notes, userID, parent, notetree.KindNote, sample.title, sample.content); err != nil {
					return added, err
				}
				added++
			}
		}
	}

	return added, nil
}

func addTitled(ctx context.Context, notes *service.NoteService, userID string, parent uint64, kind notetree.Kind, title, content string) (uint64, error) {
	id, err := notes.AddNode(ctx, userID, parent, kind)
	if err != nil {
		return 0, err
	}

	patch := notetree.Patch{Title: &title}
	if kind == notetree.KindNote {
		patch.Content = &content
	}
	if _, err := notes.EditNode(ctx, userID, id, patch); err != nil {
		return 0, err
	}
	return id, nil
}

func pick(options []string) string {
	return options[rand.IntN(len(options))]
}

func defaultDataPath() string {
	if p := os.Getenv("DATA_PATH"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, "Freenote", "data")
}
