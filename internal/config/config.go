package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// DefaultModel is the model used when none is selected.
const DefaultModel = "gpt-5-mini"

// Models is the fixed list the user may select from.
var Models = []string{
	"gpt-5-nano",
	"gpt-5-mini",
	"gpt-5",
	"gpt-4.1-nano",
	"gpt-4.1-mini",
	"gpt-4.1",
}

// TitleModel is one entry in the title-generation fallback chain.
type TitleModel struct {
	Model       string
	Temperature float64
}

// TitleModels is the fixed fallback order for the title-generation
// call. First success wins; all failing falls back to a local title.
var TitleModels = []TitleModel{
	{Model: "gpt-5-nano"},
	{Model: "gpt-4.1-nano"},
	{Model: "gpt-5-mini", Temperature: 0.3},
	{Model: "gpt-4.1-mini", Temperature: 0.3},
}

const apiKeyVar = "OPENAI_API_KEY"

// Config holds application configuration.
type Config struct {
	ChatDir      string // directory holding conversation records
	Model        string // selected completion model
	StoreBackend string // "file" or "sqlite"
	Debug        bool
}

// Load reads a .env file if one exists (the key set through the app is
// persisted there) and returns the defaults. Flags layer on top.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		ChatDir:      DefaultChatDir(),
		Model:        DefaultModel,
		StoreBackend: StoreFile,
	}
}

// DefaultChatDir is ~/Documents/chats, falling back to ./chats when the
// home directory cannot be determined.
func DefaultChatDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "chats"
	}
	return filepath.Join(home, "Documents", "chats")
}

// ValidModel reports whether id is one of the selectable models.
func ValidModel(id string) bool {
	for _, m := range Models {
		if m == id {
			return true
		}
	}
	return false
}

// APIKey returns the completion credential, empty if not configured.
// It is read from the environment on every call so a key set at runtime
// takes effect immediately.
func APIKey() string {
	return os.Getenv(apiKeyVar)
}

// SaveAPIKey sets the key for this process and persists it to .env,
// updating an existing OPENAI_API_KEY line and keeping everything else.
func SaveAPIKey(key string) error {
	if err := os.Setenv(apiKeyVar, key); err != nil {
		return err
	}
	return rewriteEnvFile(".env", key)
}

// ClearAPIKey removes the key from the process and from .env.
func ClearAPIKey() error {
	os.Unsetenv(apiKeyVar)
	return rewriteEnvFile(".env", "")
}

func rewriteEnvFile(path, key string) error {
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var out []string
	replaced := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), apiKeyVar+"=") {
			if key != "" && !replaced {
				out = append(out, apiKeyVar+"="+key)
				replaced = true
			}
			continue
		}
		if line != "" || len(out) > 0 {
			out = append(out, line)
		}
	}
	if key != "" && !replaced {
		out = append(out, apiKeyVar+"="+key)
	}

	if len(out) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to update %s: %w", path, err)
		}
		return nil
	}
	content := strings.Join(out, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
