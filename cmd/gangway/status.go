package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/schmitthub/gangway/internal/engine"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show container state for every stage's project",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format: table or yaml")
}

// statusEntry is one container row in the status report.
type statusEntry struct {
	Project   string `yaml:"project"`
	Service   string `yaml:"service"`
	Container string `yaml:"container"`
	Image     string `yaml:"image"`
	State     string `yaml:"state"`
	Status    string `yaml:"status"`
	Ports     string `yaml:"ports,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, err := engine.New(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	runners, err := stageRunners()
	if err != nil {
		return err
	}

	var entries []statusEntry
	seen := make(map[string]bool)
	for _, r := range runners {
		project := r.ProjectName()
		if seen[project] {
			continue
		}
		seen[project] = true

		containers, err := eng.ListProject(ctx, project)
		if err != nil {
			return err
		}
		for _, c := range containers {
			var ports []string
			for _, p := range c.Ports {
				if p.PublicPort != 0 {
					ports = append(ports, fmt.Sprintf("%d->%d/%s", p.PublicPort, p.PrivatePort, p.Type))
				}
			}
			entries = append(entries, statusEntry{
				Project:   project,
				Service:   c.Labels[engine.LabelService],
				Container: shortID(c.ID),
				Image:     c.Image,
				State:     c.State,
				Status:    c.Status,
				Ports:     strings.Join(ports, ", "),
			})
		}
	}

	if statusOutput == "yaml" {
		out, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No gangway-managed containers found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tSERVICE\tCONTAINER\tIMAGE\tSTATE\tSTATUS\tPORTS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Project, e.Service, e.Container, e.Image, e.State, e.Status, e.Ports)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
