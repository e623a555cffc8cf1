package main

import (
	"fmt"

	"redscraper/pkg/config"
	"redscraper/pkg/database"
	"redscraper/pkg/storage"
	"redscraper/pkg/ui"
)

func runSearch(cfg *config.Config) error {
	db, err := database.New(cfg.Output.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	filter := database.SearchFilter{
		Query:    searchQuery,
		MinScore: searchMinScore,
		Author:   searchAuthor,
		PostType: searchType,
		Limit:    50,
	}
	if searchSub != "" {
		filter.Target = storage.TargetDir(searchSub, false)
	}

	results, err := db.SearchPosts(filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		ui.PrintWarning("No posts match %q", searchQuery)
		return nil
	}

	ui.PrintHeader("%d posts match %q", len(results), searchQuery)
	for i := range results {
		p := &results[i]
		ui.PrintInfo("[%d] %s", p.Score, p.Title)
		fmt.Printf("    %s | %s | %s | %s\n",
			p.Target, p.Author, p.PostType, p.CreatedUTC.Format("2006-01-02"))
	}
	return nil
}
