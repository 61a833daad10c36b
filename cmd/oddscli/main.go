// Command oddscli walks the same League → Game → Market selection as the bot, on a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rewired-gh/oddsbot/internal/config"
	"github.com/rewired-gh/oddsbot/internal/flow"
	"github.com/rewired-gh/oddsbot/internal/logger"
	"github.com/rewired-gh/oddsbot/internal/oddsapi"
)

var (
	configPath = flag.String("config", "", "Path to configuration file (optional)")
	envFile    = flag.String("env", ".env", "Path to a dotenv file")
)

// selector is the part of *flow.Flow the console needs.
type selector interface {
	Begin() (string, flow.Prompt)
	Choose(ctx context.Context, sessionID, token string) flow.Prompt
}

func main() {
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.OddsAPI.APIKey == "" {
		log.Fatalf("Invalid configuration: odds_api.api_key is required (set ODDS_API_KEY)")
	}

	// Keep the terminal for the conversation; only problems are logged
	logger.InitWithWriter("warn", "text", os.Stderr)

	client := oddsapi.NewClient(cfg.OddsAPI.BaseURL, cfg.OddsAPI.APIKey, cfg.OddsAPI.Timeout, oddsapi.ClientConfig{
		Regions:    cfg.OddsAPI.Regions,
		Markets:    cfg.OddsAPI.MarketList(),
		OddsFormat: cfg.OddsAPI.OddsFormat,
	})
	selection := flow.New(client, flow.Config{
		FetchTimeout: cfg.OddsAPI.Timeout,
		IdleTimeout:  cfg.Flow.IdleTimeout,
		MaxChoices:   cfg.Flow.MaxChoices,
		MaxSessions:  1,
	}, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, selection, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("oddscli: %v", err)
	}
}

// run drives one session. Entering a number picks an option, "b" returns to the previous
// prompt and "q" quits. After a final answer the last menu is shown again.
func run(ctx context.Context, sel selector, in io.Reader, out io.Writer) error {
	sessionID, first := sel.Begin()
	stack := []flow.Prompt{first}
	scanner := bufio.NewScanner(in)

	for {
		current := stack[len(stack)-1]
		printPrompt(out, current)
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())

		switch input {
		case "q", "quit", "exit":
			return nil
		case "b", "back":
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			continue
		}

		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(current.Options) {
			fmt.Fprintf(out, "Pick a number between 1 and %d, b to go back or q to quit.\n\n", len(current.Options))
			continue
		}

		next := sel.Choose(ctx, sessionID, current.Options[n-1].Token)
		if next.Final() {
			fmt.Fprintf(out, "\n%s\n\n", next.Text)
			if next.Text == flow.ExpiredMessage {
				sessionID, first = sel.Begin()
				stack = []flow.Prompt{first}
			}
			continue
		}
		stack = append(stack, next)
	}
}

func printPrompt(out io.Writer, p flow.Prompt) {
	fmt.Fprintln(out, p.Text)
	for i, opt := range p.Options {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, opt.Label)
	}
}
