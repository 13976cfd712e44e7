package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	clientws "github.com/dohr-michael/colloquy/clients/ws"
	"github.com/dohr-michael/colloquy/internal/config"
	wsgateway "github.com/dohr-michael/colloquy/internal/gateway/ws"
)

// NewWatchCommand returns the `watch` command: follow a running
// conversation's events over the gateway WebSocket.
func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream events from a running conversation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Gateway WebSocket URL (default derived from config)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := dialGateway(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			slog.Info("watching conversation events, Ctrl-C to stop")
			for {
				frame, err := client.ReadFrame()
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				printFrame(frame)
			}
		},
	}
}

func dialGateway(ctx context.Context, cmd *cli.Command) (*clientws.Client, error) {
	url := cmd.String("url")
	if url == "" {
		cfg, err := config.Load(cmd.String("config"))
		if err != nil {
			cfg = config.Default()
		}
		url = fmt.Sprintf("ws://%s:%d/api/ws", cfg.Gateway.Host, cfg.Gateway.Port)
	}
	return clientws.Dial(ctx, url)
}

func printFrame(frame wsgateway.Frame) {
	switch frame.Type {
	case wsgateway.FrameTypeEvent:
		payload := summarizePayload(frame.Payload)
		if frame.ConversationID != "" {
			fmt.Printf("%-20s %s  %s\n", frame.Event, frame.ConversationID, payload)
		} else {
			fmt.Printf("%-20s %s\n", frame.Event, payload)
		}
	case wsgateway.FrameTypeResponse:
		if frame.OK != nil && *frame.OK {
			fmt.Printf("ok: %s\n", summarizePayload(frame.Payload))
		} else {
			fmt.Printf("error: %s\n", frame.Error)
		}
	}
}

func summarizePayload(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	// One line regardless of how the payload was formatted.
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	compact, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(compact)
}
