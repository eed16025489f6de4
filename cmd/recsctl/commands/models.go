package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smaliarov/post-recommender/internal/config"
	"github.com/smaliarov/post-recommender/internal/scoring"
)

// NewModelsCmd creates the models command
func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect model artifacts",
	}

	cmd.AddCommand(newModelsValidateCmd())

	return cmd
}

func newModelsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the model artifact for every experiment group",
		Long:  "Load and validate each group's model artifact from MODEL_DIR, the same checks the server runs at startup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			splitter, err := newSplitter(cfg)
			if err != nil {
				return fmt.Errorf("failed to build splitter: %w", err)
			}

			var failed bool
			for _, group := range splitter.Groups() {
				path := scoring.ModelPath(cfg.ModelDir, group)
				model, err := scoring.LoadModel(path)
				if err != nil {
					failed = true
					fmt.Printf("  %s: FAIL (%v)\n", group, err)
					continue
				}
				fmt.Printf("  %s: OK (version %s, %d features, %s)\n", group, model.Version(), model.Schema().Size(), path)
			}

			if failed {
				return fmt.Errorf("one or more model artifacts failed validation")
			}
			return nil
		},
	}
}
