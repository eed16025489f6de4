package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smaliarov/post-recommender/cmd/recsctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "recsctl",
		Short: "Operations tool for the post recommendation service",
		Long:  "CLI tool for inspecting experiment assignments, model artifacts, and the candidate catalog",
	}

	rootCmd.AddCommand(commands.NewBucketCmd())
	rootCmd.AddCommand(commands.NewModelsCmd())
	rootCmd.AddCommand(commands.NewCatalogCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
