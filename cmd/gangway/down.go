package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schmitthub/gangway/internal/logger"
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Tear down every stage's containers and networks",
	Long: `Tears down all configured stages, regardless of their force_down
flag. Removal is best effort: a network still used by containers outside
these stages cannot be removed, and such failures are reported as
warnings only.`,
	RunE: runDown,
}

func init() {
	rootCmd.AddCommand(downCmd)
}

func runDown(cmd *cobra.Command, args []string) error {
	runners, err := stageRunners()
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, r := range runners {
		if err := r.Down(ctx); err != nil {
			logger.Warn().Err(err).Str("file", r.File()).Msg("stage teardown failed")
			continue
		}
		fmt.Printf("Stage %s torn down.\n", r.File())
	}
	return nil
}
