package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/colloquy/internal/config"
	"github.com/dohr-michael/colloquy/internal/conversation"
	"github.com/dohr-michael/colloquy/internal/events"
	"github.com/dohr-michael/colloquy/internal/gateway"
	wsgateway "github.com/dohr-michael/colloquy/internal/gateway/ws"
	"github.com/dohr-michael/colloquy/internal/media"
	"github.com/dohr-michael/colloquy/internal/memory"
	"github.com/dohr-michael/colloquy/internal/models"
	"github.com/dohr-michael/colloquy/internal/scenario"
	"github.com/dohr-michael/colloquy/internal/schedule"
	"github.com/dohr-michael/colloquy/internal/secrets"
	"github.com/dohr-michael/colloquy/internal/storage"
	"github.com/dohr-michael/colloquy/internal/transcripts"
)

// NewRunCommand returns the `run` command: start a conversation and serve the
// observer gateway until it ends or the process is interrupted.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a conversation from a scenario",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "scenario",
				Aliases: []string{"s"},
				Usage:   "Scenario name or path to a scenario YAML file",
			},
			&cli.IntFlag{
				Name:  "max-turns",
				Usage: "Stop after this many turns (0 = unlimited)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Gateway listen host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Gateway listen port",
			},
			&cli.BoolFlag{
				Name:  "no-gateway",
				Usage: "Run without the observer gateway",
			},
		},
		Action: runConversation,
	}
}

// app holds the shared collaborators of one `run` invocation. Scheduled
// scenario starts reuse them so every conversation lands in the same stores
// and on the same bus.
type app struct {
	cfg        *config.Config
	bus        *events.Bus
	registry   *models.Registry
	dispatcher *conversation.Dispatcher
	store      *transcripts.FileStore
	memories   *memory.FileStore
	media      *media.Generator
	server     *gateway.Server
	log        *slog.Logger
}

func runConversation(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("max-turns") {
		cfg.Conversation.MaxTurns = int(cmd.Int("max-turns"))
	}

	if err := secrets.GenerateIdentity(secrets.KeyPath()); err != nil {
		slog.Warn("failed to prepare age key", "error", err)
	}

	scn, err := resolveScenario(cmd.String("scenario"))
	if err != nil {
		return err
	}

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	eventLog := storage.NewEventLogger(filepath.Join(config.ColloquyPath(), "events"), bus)
	defer eventLog.Close()
	usage := storage.NewUsageTracker(bus)
	defer usage.Close()

	registry := models.NewRegistry(cfg.Models)

	a := &app{
		cfg:        cfg,
		bus:        bus,
		registry:   registry,
		dispatcher: &conversation.Dispatcher{Resolver: registry},
		store:      transcripts.NewFileStore(config.TranscriptsPath()),
		memories:   memory.NewFileStore(config.MemoryPath()),
		media:      media.NewGenerator(cfg.Media, cfg.Media.Dir, slog.Default()),
		log:        slog.Default(),
	}

	if !cmd.Bool("no-gateway") {
		a.server = gateway.NewServer(bus, a.store, usage, cfg.Gateway.Host, cfg.Gateway.Port)
		go func() {
			if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("gateway server failed", "error", err)
			}
		}()
	}

	media.StartCleanupLoop(ctx, cfg.Media.Dir, cfg.Media.MaxAge.Duration(), time.Hour, a.log)

	runner := schedule.NewRunner(cfg.Schedules, bus, func(name string) {
		scheduled, err := scenario.LoadByName(config.ScenariosPath(), name)
		if err != nil {
			a.log.Warn("scheduled scenario not found", "scenario", name, "error", err)
			return
		}
		if err := a.startScenario(ctx, scheduled); err != nil {
			a.log.Error("scheduled conversation failed", "scenario", name, "error", err)
		}
	}, a.log)
	runner.Start()
	defer runner.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.startScenario(ctx, scn)
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		slog.Info("shutting down")
		runErr = <-errCh
	}

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			slog.Error("gateway shutdown failed", "error", err)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// resolveScenario loads the scenario from a path, from the scenario library
// by name, or falls back to the built-in default.
func resolveScenario(ref string) (*scenario.Scenario, error) {
	if ref == "" {
		return scenario.Default(), nil
	}
	if strings.ContainsRune(ref, os.PathSeparator) || strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") {
		return scenario.Load(ref)
	}
	return scenario.LoadByName(config.ScenariosPath(), ref)
}

// startScenario runs one conversation to completion: mint the transcript,
// populate the roster, drive the scheduler, record the outcome.
func (a *app) startScenario(ctx context.Context, scn *scenario.Scenario) error {
	roster := conversation.NewRoster()
	for _, slot := range scn.Slots {
		modelName := slot.Model
		if modelName == "" {
			modelName = a.cfg.Models.Default
		}
		if modelName == "" {
			return fmt.Errorf("scenario %q: no model for persona %q and no default configured", scn.Name, slot.Persona)
		}
		if resolved, ok := a.registry.Resolve(modelName); ok {
			modelName = resolved
		}
		if _, err := roster.Add(modelName, slot.Persona); err != nil {
			return err
		}
	}

	conv, err := a.store.Create(scn.Name, roster.Names())
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}

	sched := conversation.NewScheduler(conversation.SchedulerConfig{
		ConversationID: conv.ID,
		Conversation:   scn.Apply(a.cfg.Conversation),
		SystemPrompt:   scn.System,
		Dispatcher:     a.dispatcher,
		Bus:            a.bus,
		Logger:         a.log,
		Memory:         a.memories.ForConversation(conv.ID),
		Transcripts:    a.store.Sink(conv.ID),
		Media:          a.media,
		Catalog:        a.registry,
	}, roster)
	sched.Seed(scn.Opening)

	if a.server != nil {
		a.server.SetController(&schedulerController{sched: sched, registry: a.registry})
	}

	a.log.Info("conversation started", "conversation", conv.ID, "scenario", scn.Name, "participants", roster.Names())
	runErr := sched.Run(ctx)

	reason := "completed"
	if runErr != nil {
		reason = runErr.Error()
	}
	if err := a.store.Finish(conv.ID, reason); err != nil {
		a.log.Warn("failed to finalize transcript", "conversation", conv.ID, "error", err)
	}
	if err := a.store.UpdateParticipants(conv.ID, roster.Names()); err != nil {
		a.log.Warn("failed to record final roster", "conversation", conv.ID, "error", err)
	}
	return runErr
}

// schedulerController adapts a running scheduler and the model registry to
// the gateway's control surface.
type schedulerController struct {
	sched    *conversation.Scheduler
	registry *models.Registry
}

var _ wsgateway.Controller = (*schedulerController)(nil)

func (c *schedulerController) RequestAdd(model, persona string) error {
	return c.sched.RequestAdd(model, persona)
}

func (c *schedulerController) RequestRemove(name string) error {
	return c.sched.RequestRemove(name)
}

func (c *schedulerController) RequestMute(name string) error {
	return c.sched.RequestMute(name)
}

func (c *schedulerController) CancelTurn() {
	c.sched.CancelTurn()
}

func (c *schedulerController) Stop() {
	c.sched.Stop()
}

func (c *schedulerController) RosterNames() []string {
	participants, _ := c.sched.Snapshot()
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Name
	}
	return names
}

func (c *schedulerController) ModelNames() []string {
	return c.registry.CatalogNames()
}
