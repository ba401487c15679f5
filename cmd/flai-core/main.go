// Package main provides a terminal harness for the mobile core: it stands
// in for the app shell, driving login and the chat flow against a real
// backend for manual testing.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/flaitravel/mobile-core/pkg/platform"
)

const version = "0.3.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	email       string
	phone       string
	showVersion bool
}

func parseFlags() options {
	opts := options{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.email, "email", "", "Login email")
	flag.StringVar(&opts.phone, "phone", "", "Login phone number")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("flai-core version %s\n", version)
		return nil
	}

	cfg, err := platform.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	ctx := setupSignalHandler()

	p, err := platform.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	p.Initialize(ctx)

	if !p.Auth.IsAuthenticated() {
		if opts.email == "" && opts.phone == "" {
			return fmt.Errorf("no stored session; pass -email or -phone to log in")
		}
		if _, err := p.Auth.Login(ctx, opts.email, opts.phone); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	fmt.Printf("logged in as %s (stage: %s)\n", p.Auth.Session().UserID, p.Chat.ConversationState())
	return chatLoop(ctx, p)
}

// chatLoop reads user lines from stdin and prints bot replies until EOF or
// signal.
func chatLoop(ctx context.Context, p *platform.Platform) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			fmt.Print("> ")
			continue
		}
		if text == "/quit" {
			return nil
		}

		before := len(p.Chat.Messages())
		if _, err := p.Chat.SendMessage(ctx, text); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		}
		for _, msg := range p.Chat.Messages()[before:] {
			if !msg.IsUser {
				fmt.Println(msg.Text)
			}
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}
