package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/colloquy/internal/secrets"
)

// NewSecretCommand returns the `secret` command: manage age-encrypted
// config values.
func NewSecretCommand() *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Encrypt values for use in the config file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Generate the age key pair if it does not exist",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := secrets.KeyPath()
					if err := secrets.GenerateIdentity(path); err != nil {
						return err
					}
					fmt.Printf("age key ready at %s\n", path)
					return nil
				},
			},
			{
				Name:      "encrypt",
				Usage:     "Encrypt a value to an ENC[age:...] blob",
				ArgsUsage: "<value>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					value := cmd.Args().First()
					if value == "" {
						return fmt.Errorf("usage: colloquy secret encrypt <value>")
					}

					path := secrets.KeyPath()
					if err := secrets.GenerateIdentity(path); err != nil {
						return err
					}
					identity, err := secrets.LoadIdentity(path)
					if err != nil {
						return err
					}
					blob, err := secrets.Encrypt(value, identity.Recipient())
					if err != nil {
						return err
					}
					fmt.Println(blob)
					return nil
				},
			},
		},
	}
}
