package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/colloquy/internal/config"
	"github.com/dohr-michael/colloquy/internal/scenario"
)

// NewScenariosCommand returns the `scenarios` command: list the scenario
// library.
func NewScenariosCommand() *cli.Command {
	return &cli.Command{
		Name:  "scenarios",
		Usage: "List available scenarios",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			names, err := scenario.List(config.ScenariosPath())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARTICIPANTS\tOPENING")
			fmt.Fprintf(w, "%s\t%d\t%s\n", "default (built-in)", len(scenario.Default().Slots), truncate(scenario.Default().Opening, 60))
			for _, name := range names {
				s, err := scenario.LoadByName(config.ScenariosPath(), name)
				if err != nil {
					fmt.Fprintf(w, "%s\t-\t(invalid: %v)\n", name, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", s.Name, len(s.Slots), truncate(s.Opening, 60))
			}
			return w.Flush()
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
