package commands

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/smaliarov/post-recommender/internal/config"
	"github.com/smaliarov/post-recommender/internal/database"
)

// NewCatalogCmd creates the catalog command
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the candidate post catalog",
	}

	cmd.AddCommand(newCatalogStatsCmd())

	return cmd
}

func newCatalogStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show candidate counts per topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL())
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			repo := database.NewPostRepository(db, cfg.CatalogBatchSize)
			counts, err := repo.TopicCounts(context.Background())
			if err != nil {
				return fmt.Errorf("failed to count topics: %w", err)
			}

			if len(counts) == 0 {
				fmt.Println("Catalog is empty")
				return nil
			}

			topics := make([]string, 0, len(counts))
			total := 0
			for topic, n := range counts {
				topics = append(topics, topic)
				total += n
			}
			sort.Strings(topics)

			fmt.Println("Candidate posts per topic:")
			for _, topic := range topics {
				fmt.Printf("  %-16s %d\n", topic, counts[topic])
			}
			fmt.Printf("Total: %d\n", total)

			return nil
		},
	}
}
