package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/colloquy/internal/config"
	"github.com/dohr-michael/colloquy/internal/models"
)

// NewModelsCommand returns the `models` command: list configured providers
// and the catalog names usable in add requests.
func NewModelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List configured model providers",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				slog.Warn("failed to load config, using defaults", "error", err)
				cfg = config.Default()
			}

			registry := models.NewRegistry(cfg.Models)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tDRIVER\tMODEL\tDEFAULT")
			for _, name := range registry.ProviderNames() {
				prov := cfg.Models.Providers[name]
				def := ""
				if name == cfg.Models.Default {
					def = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, prov.Driver, prov.Model, def)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			names := registry.CatalogNames()
			if len(names) > 0 {
				fmt.Println("\nCatalog names (usable in add requests):")
				for _, name := range names {
					fmt.Printf("  %s\n", name)
				}
			}
			return nil
		},
	}
}
