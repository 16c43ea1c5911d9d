package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/rode/internal"
)

// RunFunc executes a subcommand
type RunFunc func(cmd *cobra.Command, args []string) error

// Handlers are the actions behind the subcommands
type Handlers struct {
	Serve     RunFunc
	Translate RunFunc
	History   RunFunc
	Models    RunFunc
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, handlers Handlers) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rode",
		Short: "Romanian to German word translator",
		Long: `rode translates single words with the Reverso helper script.

It tries a direct translation first and falls back to contextual
examples when the direct lookup yields nothing usable.

Examples:
  rode serve                        # Serve POST /translate-ro-de on 127.0.0.1:8000
  rode translate măr                # Translate one word on the terminal
  rode translate --batch words.txt  # Translate one word per line
  rode history                      # Show recent translations
  rode models                       # List OpenAI models for --backend openai`,
		Version:      internal.Version,
		SilenceUsage: true,
	}

	setupPersistentFlags(rootCmd, flags)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP translation service",
		Args:  cobra.NoArgs,
		RunE:  handlers.Serve,
	}
	serveCmd.Flags().StringVar(&flags.Host, "host", flags.Host, "Address to listen on")
	serveCmd.Flags().IntVarP(&flags.Port, "port", "p", flags.Port, "Port to listen on")
	serveCmd.Flags().Float64Var(&flags.RateLimit, "rate-limit", flags.RateLimit, "Requests per second per client IP (0 disables limiting)")
	serveCmd.Flags().IntVar(&flags.RateBurst, "rate-burst", flags.RateBurst, "Burst size of the per client rate limit")

	translateCmd := &cobra.Command{
		Use:   "translate [word]",
		Short: "Translate a word, or a file of words with --batch",
		Args: func(cmd *cobra.Command, args []string) error {
			if flags.BatchFile != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: handlers.Translate,
	}
	translateCmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Translate words from file (one per line)")
	translateCmd.Flags().IntVarP(&flags.Concurrency, "concurrency", "c", flags.Concurrency, "Parallel translations in batch mode")
	translateCmd.Flags().BoolVar(&flags.JSONOutput, "json", false, "Print full results as JSON")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent successful translations",
		Args:  cobra.NoArgs,
		RunE:  handlers.History,
	}
	historyCmd.Flags().IntVarP(&flags.Limit, "limit", "n", flags.Limit, "Number of entries to show")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List OpenAI chat models usable with --backend openai",
		Args:  cobra.NoArgs,
		RunE:  handlers.Models,
	}

	rootCmd.AddCommand(serveCmd, translateCmd, historyCmd, modelsCmd)

	bindFlagsToViper(rootCmd, serveCmd)

	return rootCmd
}

func setupPersistentFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()

	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.rode.yaml)")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	pf.BoolVar(&flags.LogJSON, "log-json", false, "Log as JSON instead of console output")
	pf.StringVar(&flags.From, "from", flags.From, "Source language")
	pf.StringVar(&flags.To, "to", flags.To, "Target language")
	pf.StringVar(&flags.Backend, "backend", flags.Backend, "Translation backend: reverso, openai or gemini")
	pf.StringSliceVar(&flags.Helper, "helper", flags.Helper, "Helper command line, e.g. node,reverso_helper.js")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Upper bound for a single helper invocation")
	pf.StringVar(&flags.HistoryPath, "history", "", "SQLite file recording translations (empty disables history)")
}

// flagKeys maps flag names to their viper keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-json":   "log.json",
	"from":       "translate.source",
	"to":         "translate.target",
	"backend":    "translator.backend",
	"helper":     "reverso.command",
	"timeout":    "reverso.timeout",
	"history":    "history.path",
	"host":       "server.host",
	"port":       "server.port",
	"rate-limit": "server.rate_limit",
	"rate-burst": "server.rate_burst",
}

func bindFlagsToViper(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		for _, set := range []*pflag.FlagSet{cmd.PersistentFlags(), cmd.Flags()} {
			set.VisitAll(func(f *pflag.Flag) {
				if key, ok := flagKeys[f.Name]; ok {
					viper.BindPFlag(key, f)
				}
			})
		}
	}
}

func setDefaults() {
	defaults := NewFlags()

	viper.SetDefault("server.host", defaults.Host)
	viper.SetDefault("server.port", defaults.Port)
	viper.SetDefault("server.rate_limit", defaults.RateLimit)
	viper.SetDefault("server.rate_burst", defaults.RateBurst)
	viper.SetDefault("translate.source", defaults.From)
	viper.SetDefault("translate.target", defaults.To)
	viper.SetDefault("translator.backend", defaults.Backend)
	viper.SetDefault("reverso.command", defaults.Helper)
	viper.SetDefault("reverso.timeout", defaults.Timeout)
	viper.SetDefault("reverso.breaker.enabled", false)
	viper.SetDefault("reverso.breaker.failures", 5)
	viper.SetDefault("reverso.breaker.cooldown", "30s")
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("history.path", "")
	viper.SetDefault("log.level", defaults.LogLevel)
	viper.SetDefault("log.json", false)
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	setDefaults()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
		} else {
			viper.AddConfigPath(home)
		}

		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rode")
	}

	// RODE_SERVER_PORT overrides server.port
	viper.SetEnvPrefix("RODE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("openai.key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}

	return viper.GetString("gemini.key")
}
