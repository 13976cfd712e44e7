package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/colloquy/internal/config"
	"github.com/dohr-michael/colloquy/internal/conversation"
	"github.com/dohr-michael/colloquy/internal/transcripts"
)

// NewTranscriptsCommand returns the `transcripts` command with its
// list/show/delete subcommands.
func NewTranscriptsCommand() *cli.Command {
	return &cli.Command{
		Name:           "transcripts",
		Usage:          "Inspect stored conversations",
		DefaultCommand: "list",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List stored conversations",
				Action: listTranscripts,
			},
			{
				Name:      "show",
				Usage:     "Print a conversation's messages",
				ArgsUsage: "<conversation-id>",
				Action:    showTranscript,
			},
			{
				Name:      "delete",
				Usage:     "Delete a stored conversation",
				ArgsUsage: "<conversation-id>",
				Action:    deleteTranscript,
			},
		},
	}
}

func listTranscripts(ctx context.Context, cmd *cli.Command) error {
	store := transcripts.NewFileStore(config.TranscriptsPath())
	list, err := store.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tSTATUS\tTURNS\tUPDATED\tEND REASON")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			c.ID, c.Scenario, c.Status, c.Turns,
			c.UpdatedAt.Format("2006-01-02 15:04"), c.EndReason)
	}
	return w.Flush()
}

func showTranscript(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: colloquy transcripts show <conversation-id>")
	}

	store := transcripts.NewFileStore(config.TranscriptsPath())
	c, err := store.Get(id)
	if err != nil {
		return err
	}
	msgs, err := store.Messages(id)
	if err != nil {
		return err
	}

	fmt.Printf("%s  scenario=%s  status=%s  turns=%d\n\n", c.ID, c.Scenario, c.Status, c.Turns)
	for _, msg := range msgs {
		printMessage(msg)
	}
	return nil
}

func printMessage(msg *conversation.Message) {
	label := msg.Author
	if label == "" {
		label = string(msg.Role)
	}
	fmt.Printf("[%d] %s (%s)\n", msg.TurnIndex, label, msg.Timestamp.Format("15:04:05"))
	if text := msg.Text(); text != "" {
		fmt.Println(text)
	}
	for _, part := range msg.Parts {
		if part.Kind == conversation.PartImage {
			fmt.Printf("(image: %s)\n", part.ImagePath)
		}
	}
	fmt.Println()
}

func deleteTranscript(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: colloquy transcripts delete <conversation-id>")
	}
	store := transcripts.NewFileStore(config.TranscriptsPath())
	if err := store.Delete(id); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", id)
	return nil
}
