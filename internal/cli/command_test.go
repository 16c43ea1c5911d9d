package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func noop(cmd *cobra.Command, args []string) error { return nil }

func findCommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()

	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}

	t.Fatalf("subcommand %s not found", name)
	return nil
}

func TestCreateRootCommand(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	flags := NewFlags()
	cmd := CreateRootCommand(flags, Handlers{Serve: noop, Translate: noop, History: noop, Models: noop})

	if cmd.Use != "rode" {
		t.Errorf("Expected Use to be 'rode', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "Romanian to German") {
		t.Errorf("Expected Short description to mention the language pair, got %q", cmd.Short)
	}

	persistent := []string{"config", "log-level", "log-json", "from", "to", "backend", "helper", "timeout", "history"}
	for _, name := range persistent {
		t.Run("persistent_"+name, func(t *testing.T) {
			if cmd.PersistentFlags().Lookup(name) == nil {
				t.Errorf("Expected persistent flag %s to exist", name)
			}
		})
	}

	local := map[string][]string{
		"serve":     {"host", "port", "rate-limit", "rate-burst"},
		"translate": {"batch", "concurrency", "json"},
		"history":   {"limit"},
		"models":    {},
	}
	for sub, names := range local {
		subCmd := findCommand(t, cmd, sub)
		for _, name := range names {
			t.Run(sub+"_"+name, func(t *testing.T) {
				if subCmd.Flags().Lookup(name) == nil {
					t.Errorf("Expected flag %s on %s", name, sub)
				}
			})
		}
	}
}

func TestTranslateArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		called  bool
	}{
		{"single word", []string{"translate", "măr"}, false, true},
		{"no word", []string{"translate"}, true, false},
		{"two words", []string{"translate", "măr", "copac"}, true, false},
		{"batch file", []string{"translate", "--batch", "words.txt"}, false, true},
		{"batch and word", []string{"translate", "--batch", "words.txt", "măr"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)

			called := false
			cmd := CreateRootCommand(NewFlags(), Handlers{
				Serve:   noop,
				History: noop,
				Translate: func(cmd *cobra.Command, args []string) error {
					called = true
					return nil
				},
			})
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if called != tt.called {
				t.Errorf("handler called = %v, want %v", called, tt.called)
			}
		})
	}
}

func TestFlagsBindToViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	flags := NewFlags()
	cmd := CreateRootCommand(flags, Handlers{Serve: noop, Translate: noop, History: noop, Models: noop})
	cmd.SetArgs([]string{"serve", "--port", "9000", "--from", "english", "--to", "french", "--timeout", "5s"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := viper.GetInt("server.port"); got != 9000 {
		t.Errorf("server.port = %d, want 9000", got)
	}
	if got := viper.GetString("translate.source"); got != "english" {
		t.Errorf("translate.source = %q, want english", got)
	}
	if got := viper.GetString("translate.target"); got != "french" {
		t.Errorf("translate.target = %q, want french", got)
	}
	if got := viper.GetDuration("reverso.timeout"); got != 5*time.Second {
		t.Errorf("reverso.timeout = %s, want 5s", got)
	}
}

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		key       string
		expected  string
		setupFunc func(t *testing.T)
	}{
		{
			name: "config file values",
			content: `server:
  port: 8123
translate:
  target: english
`,
			key:      "server.port",
			expected: "8123",
		},
		{
			name:     "defaults without file",
			key:      "translator.backend",
			expected: "reverso",
		},
		{
			name:     "environment overrides",
			content:  "server:\n  host: 0.0.0.0\n",
			key:      "server.host",
			expected: "10.1.2.3",
			setupFunc: func(t *testing.T) {
				t.Setenv("RODE_SERVER_HOST", "10.1.2.3")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)

			if tt.setupFunc != nil {
				tt.setupFunc(t)
			}

			cfgFile := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.content != "" {
				cfgFile = filepath.Join(t.TempDir(), "rode.yaml")
				if err := os.WriteFile(cfgFile, []byte(tt.content), 0644); err != nil {
					t.Fatalf("Failed to write config: %v", err)
				}
			}

			InitConfig(cfgFile)

			if got := viper.GetString(tt.key); got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestGetOpenAIKey(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("openai.key", "config-key")

	t.Setenv("OPENAI_API_KEY", "")
	if got := GetOpenAIKey(); got != "config-key" {
		t.Errorf("GetOpenAIKey() = %q, want config-key", got)
	}

	t.Setenv("OPENAI_API_KEY", "env-key")
	if got := GetOpenAIKey(); got != "env-key" {
		t.Errorf("GetOpenAIKey() = %q, want env-key", got)
	}
}
