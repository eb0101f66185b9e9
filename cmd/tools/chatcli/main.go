package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/manishsharma864/ai-horroscope/internal/config"
	"github.com/manishsharma864/ai-horroscope/internal/conversation"
	chatHandler "github.com/manishsharma864/ai-horroscope/internal/handler/chat"
	"github.com/manishsharma864/ai-horroscope/internal/logger"
	"github.com/manishsharma864/ai-horroscope/internal/service/ai"
	"github.com/manishsharma864/ai-horroscope/internal/service/chat"
	"github.com/manishsharma864/ai-horroscope/internal/service/geo"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "Terminal client for the horoscope chat",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the birth-details conversation on stdin/stdout",
	Long: `Prompts for the shared password, then walks through name, date, time and
place of birth before asking for a personal or compatibility reading.
Type /reset to start over and /quit to exit.`,
	RunE: runChatCmd,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runChatCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	logger.New(logger.Config{Level: logLevel, Pretty: true, Output: cmd.ErrOrStderr()})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var generator conversation.TextGenerator
	if cfg.AI.Enabled() {
		generator, err = ai.New(ctx, cfg.AI)
		if err != nil {
			return err
		}
	} else {
		log.Warn().Msg("LLM credentials not configured, readings will be unavailable")
	}

	geocoder := geo.NewCached(geo.NewNominatim(geo.Config{
		BaseURL:   cfg.Geo.BaseURL,
		UserAgent: cfg.Geo.UserAgent,
		Timeout:   cfg.Geo.Timeout,
	}))

	svc := chat.NewService(conversation.NewEngine(geocoder, generator), cfg.Auth.Password)
	return runChat(ctx, svc, cmd.InOrStdin(), cmd.OutOrStdout())
}

// runChat drives one session until /quit or end of input.
func runChat(ctx context.Context, svc *chat.Service, in io.Reader, out io.Writer) error {
	session, err := svc.CreateSession(ctx)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	readLine := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}

	for {
		password, ok := readLine("Password: ")
		if !ok {
			return scanner.Err()
		}
		if _, err := svc.Login(ctx, session.ID, password); err != nil {
			_, message := chatHandler.ErrorStatus(err)
			fmt.Fprintln(out, message)
			continue
		}
		break
	}

	fmt.Fprintln(out, conversation.Greeting)

	for {
		line, ok := readLine("> ")
		if !ok {
			return scanner.Err()
		}

		switch strings.TrimSpace(line) {
		case "/quit":
			return nil
		case "/reset":
			if _, err := svc.Reset(ctx, session.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, conversation.Greeting)
			continue
		case "":
			continue
		}

		next, err := svc.Send(ctx, session.ID, line)
		if err != nil {
			_, message := chatHandler.ErrorStatus(err)
			fmt.Fprintln(out, message)
			continue
		}

		messages := next.Conversation.Messages
		fmt.Fprintln(out, messages[len(messages)-1].Content)
	}
}
