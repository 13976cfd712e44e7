package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	clientws "github.com/dohr-michael/colloquy/clients/ws"
	wsgateway "github.com/dohr-michael/colloquy/internal/gateway/ws"
)

// NewCtlCommand returns the `ctl` command: send control requests to a
// running conversation over the gateway WebSocket.
func NewCtlCommand() *cli.Command {
	urlFlag := &cli.StringFlag{
		Name:  "url",
		Usage: "Gateway WebSocket URL (default derived from config)",
	}

	return &cli.Command{
		Name:  "ctl",
		Usage: "Control a running conversation",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a participant at the next turn boundary",
				ArgsUsage: "<model> <persona>",
				Flags:     []cli.Flag{urlFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					model, persona := cmd.Args().Get(0), cmd.Args().Get(1)
					if model == "" || persona == "" {
						return fmt.Errorf("usage: colloquy ctl add <model> <persona>")
					}
					return control(ctx, cmd, func(c *clientws.Client) error {
						return c.AddAI(model, persona)
					})
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a participant",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{urlFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("usage: colloquy ctl remove <name>")
					}
					return control(ctx, cmd, func(c *clientws.Client) error {
						return c.RemoveAI(name)
					})
				},
			},
			{
				Name:      "mute",
				Usage:     "Make a participant skip its next turn",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{urlFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("usage: colloquy ctl mute <name>")
					}
					return control(ctx, cmd, func(c *clientws.Client) error {
						return c.Mute(name)
					})
				},
			},
			{
				Name:  "cancel",
				Usage: "Abort the in-flight turn",
				Flags: []cli.Flag{urlFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return control(ctx, cmd, (*clientws.Client).CancelTurn)
				},
			},
			{
				Name:  "stop",
				Usage: "End the conversation",
				Flags: []cli.Flag{urlFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return control(ctx, cmd, (*clientws.Client).Stop)
				},
			},
			{
				Name:  "models",
				Usage: "List the models available for add requests",
				Flags: []cli.Flag{urlFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return control(ctx, cmd, (*clientws.Client).ListModels)
				},
			},
			{
				Name:  "roster",
				Usage: "Show the current roster",
				Flags: []cli.Flag{urlFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return control(ctx, cmd, (*clientws.Client).Roster)
				},
			},
		},
	}
}

// control dials the gateway, sends one request, and prints the response
// frame. Event frames arriving before the response are skipped.
func control(ctx context.Context, cmd *cli.Command, send func(*clientws.Client) error) error {
	client, err := dialGateway(ctx, cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := send(client); err != nil {
		return err
	}

	for {
		frame, err := client.ReadFrame()
		if err != nil {
			return err
		}
		if frame.Type != wsgateway.FrameTypeResponse {
			continue
		}
		printFrame(frame)
		if frame.OK == nil || !*frame.OK {
			return fmt.Errorf("request failed")
		}
		return nil
	}
}
