package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smaliarov/post-recommender/internal/config"
	"github.com/smaliarov/post-recommender/internal/experiment"
)

// NewBucketCmd creates the bucket command
func NewBucketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bucket <user-id>",
		Short: "Show the experiment assignment for a user",
		Long:  "Compute the hash bucket and experiment group a user falls into under the current salt and split",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("user id must be an integer, got %q", args[0])
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			splitter, err := newSplitter(cfg)
			if err != nil {
				return fmt.Errorf("failed to build splitter: %w", err)
			}

			fmt.Printf("User ID: %d\n", userID)
			fmt.Printf("Bucket:  %d\n", splitter.Bucket(userID))
			fmt.Printf("Group:   %s\n", splitter.Assign(userID))

			return nil
		},
	}

	return cmd
}

func newSplitter(cfg *config.Config) (*experiment.Splitter, error) {
	if cfg.ExperimentsFile != "" {
		return experiment.NewSplitterFromFile(cfg.Salt, cfg.ExperimentsFile)
	}
	return experiment.NewSplitter(cfg.Salt, cfg.SplitPercentage)
}
