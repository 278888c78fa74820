// Package main prints the users and note trees held by a Freenote store.
//
// Usage:
//
//	go run ./cmd/dbinspect -data ~/Freenote/data
//	go run ./cmd/dbinspect -backend sqlite -user alice -full
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/freenote/freenote-server/internal/config"
	"github.com/freenote/freenote-server/internal/di/providers"
	"github.com/freenote/freenote-server/internal/logger"
	"github.com/freenote/freenote-server/internal/notetree"
	"github.com/freenote/freenote-server/internal/store"
)

func main() {
	dataPath := flag.String("data", defaultDataPath(), "Server data path")
	backend := flag.String("backend", config.BackendBadger, "Store backend (badger, sqlite)")
	userID := flag.String("user", "", "Only inspect this user")
	full := flag.Bool("full", false, "Print note contents")
	flag.Parse()

	st, path, err := providers.OpenStore(*backend, *dataPath, logger.Discard())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	fmt.Println("=== Database Inspection ===")
	fmt.Printf("Backend: %s\nPath:    %s\n\n", *backend, path)

	ids := []string{*userID}
	if *userID == "" {
		ids, err = st.ListUserIDs(ctx)
		if err != nil {
			log.Fatalf("Failed to list users: %v", err)
		}
	}

	malformed := 0
	for _, id := range ids {
		if !inspectUser(ctx, st, id, *full) {
			malformed++
		}
	}

	fmt.Printf("\nUsers: %d, malformed documents: %d\n", len(ids), malformed)
}

// inspectUser prints one user's record and tree. It reports false when the
// stored document could not be loaded.
func inspectUser(ctx context.Context, st store.DocumentStore, userID string, full bool) bool {
	user, err := st.GetUser(ctx, userID)
	if err != nil {
		fmt.Printf("User %s: %v\n", userID, err)
		return false
	}
	fmt.Printf("User: %s", user.ID)
	if user.Email != "" {
		fmt.Printf(" <%s>", user.Email)
	}
	fmt.Printf("  created %s, updated %s\n", user.CreatedAt.Format("2006-01-02 15:04"), user.UpdatedAt.Format("2006-01-02 15:04"))

	doc, rev, err := st.LoadDocument(ctx, userID)
	if err != nil {
		fmt.Printf("  document: %v\n", err)
		return false
	}

	nodes := doc.Nodes()
	fmt.Printf("  revision %d, %d nodes, max id %d\n", rev, len(nodes), doc.MaxID())
	printTree(doc.Root, 1, full)
	return true
}

func printTree(n *notetree.Node, depth int, full bool) {
	indent := strings.Repeat("  ", depth)
	switch n.Kind {
	case notetree.KindNotebook:
		fmt.Printf("%s[%d] %s/ (%d)\n", indent, n.ID, n.Title, len(n.Children))
		for _, child := range n.Children {
			printTree(child, depth+1, full)
		}
	default:
		fmt.Printf("%s[%d] %s\n", indent, n.ID, n.Title)
		if full && n.Content != "" {
			for line := range strings.SplitSeq(n.Content, "\n") {
				fmt.Printf("%s    | %s\n", indent, line)
			}
		}
	}
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
