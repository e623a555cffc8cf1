package main

import (
	"fmt"

	"redscraper/pkg/analytics"
	"redscraper/pkg/config"
	"redscraper/pkg/database"
	"redscraper/pkg/storage"
	"redscraper/pkg/ui"
)

func runAnalyze(cfg *config.Config) error {
	db, err := database.New(cfg.Output.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	targetDir := storage.TargetDir(analyzeTarget, isUser)
	posts, err := db.PostsForTarget(targetDir)
	if err != nil {
		return fmt.Errorf("load posts: %w", err)
	}
	if len(posts) == 0 {
		ui.PrintWarning("No stored posts for %s; scrape it first", analyzeTarget)
		return nil
	}

	// With neither flag set, run everything.
	runAll := !analyzeSentiment && !analyzeKeywords

	texts := make([]string, 0, len(posts))
	for i := range posts {
		texts = append(texts, posts[i].Title+" "+posts[i].Selftext)
	}

	ui.PrintHeader("Analysis of %s (%d posts)", analyzeTarget, len(posts))

	if analyzeSentiment || runAll {
		summary := analytics.AnalyzeBatch(texts)
		ui.PrintHeader("Sentiment")
		ui.PrintKeyValue("Positive", summary.Positive)
		ui.PrintKeyValue("Negative", summary.Negative)
		ui.PrintKeyValue("Neutral", summary.Neutral)
		ui.PrintKeyValue("Average score", fmt.Sprintf("%.3f", summary.Average))
	}

	if analyzeKeywords || runAll {
		keywords := analytics.ExtractKeywords(texts, 20)
		ui.PrintHeader("Top keywords")
		for _, kw := range keywords {
			fmt.Printf("  %-20s %d\n", kw.Word, kw.Count)
		}
	}

	if runAll {
		eng := analytics.CalculateEngagement(posts)
		ui.PrintHeader("Engagement")
		ui.PrintKeyValue("Total score", eng.TotalScore)
		ui.PrintKeyValue("Total comments", eng.TotalComments)
		ui.PrintKeyValue("Avg score", fmt.Sprintf("%.1f", eng.AvgScore))
		ui.PrintKeyValue("Avg comments", fmt.Sprintf("%.1f", eng.AvgComments))
		for postType, perf := range eng.ByType {
			ui.PrintKeyValue(postType, fmt.Sprintf("%d posts, avg score %.1f", perf.Count, perf.AvgScore))
		}
	}
	return nil
}
