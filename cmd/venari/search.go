package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/models"
)

// cmdSearch runs one time-aware retrieval against the vector index and
// prints the ranked hits.
func cmdSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	k := fs.Int("k", 10, "Number of results")
	strategy := fs.String("strategy", "", "Ranking strategy: hybrid, fresh_first, balanced (empty uses config)")
	docType := fs.String("type", "", "Restrict to a document type (overview, requirements, skills)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("usage: venari search [flags] <query>")
	}

	a, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	retriever, err := a.Retriever()
	if err != nil {
		return err
	}

	var filters map[string]string
	if *docType != "" {
		filters = map[string]string{models.MetaDocumentType: *docType}
	}

	docs, err := retriever.Search(ctx, query, *k, filters, *strategy)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, doc := range docs {
		snippet := strings.ReplaceAll(doc.Document.PageContent, "\n", " ")
		if runes := []rune(snippet); len(runes) > 120 {
			snippet = string(runes[:120]) + "…"
		}
		fmt.Printf("%2d. %.3f  %-14s %s\n", i+1, doc.Score, doc.Document.JobID(), snippet)
	}
	return nil
}
