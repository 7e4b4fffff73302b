package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivanoskov/gastos_bot/internal/app"
	"github.com/ivanoskov/gastos_bot/internal/bot"
	"github.com/ivanoskov/gastos_bot/internal/config"
	"github.com/ivanoskov/gastos_bot/internal/service"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "gastos_bot",
	Short:        "Telegram bot for expenses and reminders over a spreadsheet",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (webhook when PUBLIC_URL is set, long polling otherwise)",
		RunE:  runServe,
	}

	remindCmd := &cobra.Command{
		Use:   "remind",
		Short: "Deliver due reminders once and exit",
		RunE:  runRemind,
	}

	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Move a user's old expenses to the archive sheet",
		RunE:  runArchive,
	}
	archiveCmd.Flags().String("user", "", "Telegram user id (required)")
	archiveCmd.Flags().Bool("today", false, "Archive everything before today instead of before the current month")
	archiveCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(serveCmd, remindCmd, archiveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup загружает конфигурацию и собирает приложение поверх Telegram
func setup(ctx context.Context) (*app.App, *bot.Telegram, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	tg, err := bot.NewTelegram(cfg.TelegramToken)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	a, err := app.New(ctx, cfg, tg)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, tg, cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, tg, cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.RemindersEvery > 0 {
		go a.Scheduler.Start(ctx, cfg.RemindersEvery)
	}

	if cfg.PublicURL != "" {
		if err := tg.SetWebhook(cfg.PublicURL + a.WebhookPath()); err != nil {
			log.Printf("Error setting webhook: %v", err)
		}
		return a.Serve(ctx)
	}

	if err := tg.DeleteWebhook(); err != nil {
		log.Printf("Error deleting webhook: %v", err)
	}
	log.Printf("Using long polling (PUBLIC_URL not set)")

	go func() {
		if err := a.Serve(ctx); err != nil {
			log.Printf("Error serving HTTP: %v", err)
		}
	}()
	return a.Bot.Start(ctx, tg.Updates(ctx))
}

func runRemind(cmd *cobra.Command, args []string) error {
	a, _, _, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.RunReminders(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("OK %d\n", n)
	return nil
}

func runArchive(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	today, _ := cmd.Flags().GetBool("today")

	a, _, _, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	mode := service.ArchiveBeforeMonth
	if today {
		mode = service.ArchiveBeforeToday
	}
	result, err := a.Archiver.Archive(cmd.Context(), userID, mode)
	if err != nil {
		return err
	}
	fmt.Printf("archived %d expenses before %s (%s) into %s\n",
		result.Count, result.Cutoff, service.FormatAmount(result.Total), result.Sheet)
	return nil
}
