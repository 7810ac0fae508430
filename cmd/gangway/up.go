package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/schmitthub/gangway/internal/logger"
	"github.com/schmitthub/gangway/pkg/compose"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all stages and wait for their readiness checks",
	RunE:  runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	env, err := buildEnvironment()
	if err != nil {
		return err
	}

	if err := env.Setup(context.Background()); err != nil {
		logger.Error().Err(err).Msg("environment setup failed")
		return err
	}

	printServices(env.Services())
	return nil
}

func printServices(services []*compose.Service) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tCONTAINER\tINTERNAL IP\tPORTS")
	for _, svc := range services {
		var ports []string
		for _, p := range svc.Ports() {
			ports = append(ports, fmt.Sprintf("%d->%d/tcp", svc.Port(p), p))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			svc.Name(), svc.ID(), svc.InternalIP(), strings.Join(ports, ", "))
	}
	w.Flush()
}
