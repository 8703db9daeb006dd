package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"DeskChat/internal/backend"
	"DeskChat/internal/chat"
	"DeskChat/internal/config"
	"DeskChat/internal/store"
	"DeskChat/internal/telemetry"
	"DeskChat/internal/textutil"
	"DeskChat/internal/title"
)

func main() {
	cfg := config.Load()

	flag.StringVar(&cfg.ChatDir, "chat-dir", cfg.ChatDir, "Directory holding conversation records")
	flag.StringVar(&cfg.Model, "model", cfg.Model, "Completion model")
	flag.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "Storage backend (file|sqlite)")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger, err := telemetry.InitLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracer, meter, cleanup, err := telemetry.InitTelemetry(context.Background())
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer cleanup()

	var st store.Store
	switch cfg.StoreBackend {
	case config.StoreFile:
		st, err = store.NewFileStore(cfg.ChatDir, logger)
	case config.StoreSQLite:
		st, err = store.OpenSQLite(cfg.ChatDir + ".db")
	default:
		return fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	client := backend.NewClient(logger, tracer, meter)
	titles := title.NewGenerator(client, config.TitleModels, logger)
	ui := newConsole(os.Stdout)

	engine := chat.New(st, client, titles, ui, logger)
	go engine.Run()
	defer engine.Close()

	if config.ValidModel(cfg.Model) {
		engine.SetModel(cfg.Model)
	}

	fmt.Println("=== DeskChat ===")
	fmt.Printf("Model: %s\n", cfg.Model)
	if config.APIKey() == "" {
		fmt.Println("No API key set. Use /set-key <key> before sending.")
	}
	fmt.Println("Type /help for commands, /quit to exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := scanner.Text()
		if strings.TrimSpace(input) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(input), "/") {
			if handleCommand(engine, ui, strings.TrimSpace(input)) {
				break
			}
			continue
		}
		if cfg.Debug {
			words, chars := textutil.Stats(input)
			fmt.Printf("(%d words, %d characters)\n", words, chars)
		}
		engine.Send(input)
	}

	fmt.Println("Goodbye!")
	return nil
}

// handleCommand dispatches a slash command; it reports whether the app
// should quit.
func handleCommand(engine *chat.Engine, ui *console, cmd string) bool {
	name, rest, _ := strings.Cut(cmd, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "/quit", "/exit":
		return true

	case "/new":
		engine.NewConversation()

	case "/list":
		titles := ui.listing()
		if len(titles) == 0 {
			fmt.Println("No saved conversations.")
			return false
		}
		active := ui.activeTitle()
		for _, t := range titles {
			marker := "  "
			if t == active {
				marker = "* "
			}
			fmt.Println(marker + t)
		}

	case "/load":
		if rest == "" {
			fmt.Println("usage: /load <title>")
			return false
		}
		engine.Load(rest)

	case "/rename":
		if rest == "" {
			fmt.Println("usage: /rename <new name>")
			return false
		}
		engine.Rename(ui.activeTitle(), rest)

	case "/delete":
		t := rest
		if t == "" {
			t = ui.activeTitle()
		}
		engine.Delete(t)

	case "/export":
		if rest == "" {
			fmt.Println("usage: /export <file>")
			return false
		}
		engine.Export([]string{ui.activeTitle()}, rest)

	case "/export-all":
		if rest == "" {
			fmt.Println("usage: /export-all <directory>")
			return false
		}
		engine.Export(ui.listing(), rest)

	case "/copy":
		text := engine.Clipboard()
		if text == "" {
			fmt.Println("Nothing to copy.")
			return false
		}
		fmt.Print(text)

	case "/models":
		for _, m := range config.Models {
			fmt.Println("  " + m)
		}

	case "/model":
		if rest == "" {
			fmt.Println("usage: /model <id>")
			return false
		}
		engine.SetModel(rest)

	case "/set-key":
		if rest == "" {
			fmt.Println("usage: /set-key <key>")
			return false
		}
		if !strings.HasPrefix(rest, "sk-") {
			fmt.Println("API key should start with 'sk-'")
			return false
		}
		if err := config.SaveAPIKey(rest); err != nil {
			fmt.Printf("Key set for this session only: %v\n", err)
			return false
		}
		fmt.Println("API key saved.")

	case "/clear-key":
		if err := config.ClearAPIKey(); err != nil {
			fmt.Printf("Failed to clear key: %v\n", err)
			return false
		}
		fmt.Println("API key cleared.")

	case "/help":
		fmt.Println("Available commands:")
		fmt.Println("  /new                 - Start a new conversation")
		fmt.Println("  /list                - List saved conversations")
		fmt.Println("  /load <title>        - Open a saved conversation")
		fmt.Println("  /rename <new name>   - Rename the open conversation")
		fmt.Println("  /delete [title]      - Delete a conversation (default: open one)")
		fmt.Println("  /export <file>       - Export the open conversation")
		fmt.Println("  /export-all <dir>    - Export every conversation into a directory")
		fmt.Println("  /copy                - Print the open conversation as text")
		fmt.Println("  /models              - List selectable models")
		fmt.Println("  /model <id>          - Select the completion model")
		fmt.Println("  /set-key <key>       - Set and persist the API key")
		fmt.Println("  /clear-key           - Remove the API key")
		fmt.Println("  /quit, /exit         - Exit")

	default:
		fmt.Printf("Unknown command: %s (try /help)\n", name)
	}
	return false
}
