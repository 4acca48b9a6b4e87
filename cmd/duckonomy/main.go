package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"duckonomy/internal/api"
	"duckonomy/internal/bot"
	"duckonomy/internal/config"
	"duckonomy/internal/db"
	"duckonomy/internal/econ"
	"duckonomy/internal/quests"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "duckonomy",
		Short:        "Duckonomy virtual economy engine",
		SilenceUsage: true,
	}
	root.AddCommand(
		newBotCmd(),
		newTickerCmd(),
		newInspectCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Discord bot and the ops HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadBotFromEnv()
			if err != nil {
				return err
			}
			logger := newLogger()

			pool, err := db.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			econSvc := econ.NewService(pool, logger, econ.NewMemoryFrequencyCache())
			questGen := quests.NewGenerator(pool, logger)

			b, err := bot.New(cfg.DiscordToken, logger, econSvc, questGen, cfg.DefaultCap, cfg.BoostedCap)
			if err != nil {
				return err
			}

			opsServer := api.New(logger, econSvc)
			httpServer := &http.Server{
				Addr:              cfg.OpsAddr,
				Handler:           opsServer.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()
			go func() {
				logger.Info("ops server listening", "addr", cfg.OpsAddr)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("ops server failed", "err", err)
				}
			}()

			logger.Info("bot starting")
			return b.Run(ctx)
		},
	}
}

func newTickerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ticker",
		Short: "Run the background jobs: effect ticks and quest regeneration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadTickerFromEnv()
			if err != nil {
				return err
			}
			logger := newLogger()

			pool, err := db.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			econSvc := econ.NewService(pool, logger, econ.NewMemoryFrequencyCache())
			questGen := quests.NewGenerator(pool, logger)

			if _, err := questGen.Regenerate(ctx, cfg.QuestCount); err != nil {
				logger.Error("initial quest regen failed", "err", err)
			}

			tick := time.NewTicker(cfg.TickEvery)
			defer tick.Stop()
			regen := time.NewTicker(cfg.QuestRegenEvery)
			defer regen.Stop()

			logger.Info("ticker started", "tick_every", cfg.TickEvery.String(), "quest_regen_every", cfg.QuestRegenEvery.String())
			for {
				select {
				case <-ctx.Done():
					logger.Info("ticker shutdown")
					return nil
				case now := <-tick.C:
					expired, err := econSvc.TickEffects(ctx)
					if err != nil {
						logger.Error("effect tick failed", "err", err)
						continue
					}
					econSvc.Sweep(now)
					if expired > 0 {
						logger.Info("effect tick complete", "expired", expired)
					}
				case <-regen.C:
					if _, err := questGen.Regenerate(ctx, cfg.QuestCount); err != nil {
						logger.Error("quest regen failed", "err", err)
					}
				}
			}
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <user_id>",
		Short: "Print an account's state straight from the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			pool, err := db.Connect(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			econSvc := econ.NewService(pool, slog.New(slog.NewJSONHandler(os.Stderr, nil)), nil)
			status, err := econSvc.AccountStatus(ctx, userID)
			if err != nil {
				return err
			}

			title := color.New(color.FgCyan, color.Bold)
			label := color.New(color.FgWhite)
			value := color.New(color.FgGreen, color.Bold)

			title.Printf("Account %d\n", status.ID)
			label.Print("  coins:     ")
			value.Printf("%d\n", status.Coins)
			label.Print("  energy:    ")
			value.Printf("%d/%d\n", status.Energy, status.EnergyMax)
			label.Print("  mood:      ")
			value.Printf("%d/%d\n", status.Mood, status.MoodMax)
			label.Print("  inventory: ")
			value.Printf("%d items\n", status.InventoryLoad)

			if len(status.Effects) > 0 {
				title.Println("Active effects")
				for _, e := range status.Effects {
					def, ok := econ.EffectByKind(e.Kind)
					if !ok {
						continue
					}
					label.Printf("  %s %-12s ", def.Icon, def.Name)
					value.Printf("%d ticks left\n", e.Duration)
				}
			}
			return nil
		},
	}
}
