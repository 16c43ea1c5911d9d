package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"codeberg.org/snonux/rode/internal/batch"
	"codeberg.org/snonux/rode/internal/cli"
	"codeberg.org/snonux/rode/internal/history"
	"codeberg.org/snonux/rode/internal/llm"
	"codeberg.org/snonux/rode/internal/logging"
	"codeberg.org/snonux/rode/internal/server"
	"codeberg.org/snonux/rode/internal/translation"
)

func main() {
	logging.SetDefaultLogger()

	// Create flags instance
	flags := cli.NewFlags()

	rootCmd := cli.CreateRootCommand(flags, cli.Handlers{
		Serve: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
		Translate: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd.Context(), cmd.OutOrStdout(), args, flags)
		},
		History: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), cmd.OutOrStdout(), flags.Limit)
		},
		Models: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd.Context(), cmd.OutOrStdout())
		},
	})

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// setup loads the configuration and builds the translator for a subcommand.
// The returned cleanup closes the history store, if any.
func setup(ctx context.Context) (*cli.Config, *translation.Translator, func(), error) {
	config, err := cli.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	if err := logging.Setup(config.LogLevel, config.LogJSON); err != nil {
		return nil, nil, nil, err
	}

	collaborator, err := cli.NewCollaborator(ctx, config)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create %s backend: %w", config.Backend, err)
	}

	var (
		opts    []translation.Option
		cleanup = func() {}
	)

	if config.HistoryPath != "" {
		store, err := history.Open(config.HistoryPath)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, translation.WithRecorder(store))
		cleanup = func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close history store")
			}
		}
	}

	return config, translation.NewTranslator(collaborator, config.Pair, opts...), cleanup, nil
}

func runServe(ctx context.Context) error {
	config, translator, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := server.NewHandler(translator, config.Pair)
	opts := server.Options{
		RateLimit:    config.Server.RateLimit,
		RateBurst:    config.Server.RateBurst,
		WriteTimeout: config.WriteTimeout(),
	}

	log.Info().
		Str("pair", config.Pair.Label()).
		Str("backend", config.Backend).
		Str("path", handler.TranslatePath()).
		Msg("Starting rode")

	return server.Serve(ctx, config.Server.Addr(), server.NewRouter(handler, opts), opts)
}

func runTranslate(ctx context.Context, out io.Writer, args []string, flags *cli.Flags) error {
	_, translator, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var entries []batch.Entry
	if flags.BatchFile != "" {
		entries, err = batch.ReadBatchFile(flags.BatchFile)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("no words found in %s", flags.BatchFile)
		}
	} else {
		entries = []batch.Entry{{Word: args[0], Line: 1}}
	}

	outcomes, err := batch.Run(ctx, entries, translator, flags.Concurrency)
	if err != nil {
		return err
	}

	if flags.JSONOutput {
		return printJSON(out, outcomes)
	}

	failed := 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			fmt.Fprintf(out, "%s = ERROR: %v\n", o.Entry.Word, o.Err)
		case !o.Matches():
			fmt.Fprintf(out, "%s = %s (%s, expected %s)\n", o.Entry.Word, o.Result.OutputWord, o.Result.Strategy, o.Entry.Expected)
		default:
			fmt.Fprintf(out, "%s = %s (%s)\n", o.Entry.Word, o.Result.OutputWord, o.Result.Strategy)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d words failed", failed, len(outcomes))
	}

	return nil
}

type jsonOutcome struct {
	*translation.Result
	Input    string `json:"input"`
	Expected string `json:"expected,omitempty"`
	Error    string `json:"error,omitempty"`
}

func printJSON(out io.Writer, outcomes []batch.Outcome) error {
	rows := make([]jsonOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		row := jsonOutcome{Result: o.Result, Input: o.Entry.Word, Expected: o.Entry.Expected}
		if o.Err != nil {
			row.Error = o.Err.Error()
		}
		rows = append(rows, row)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(rows)
}

func runHistory(ctx context.Context, out io.Writer, limit int) error {
	config, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	if config.HistoryPath == "" {
		return errors.New("history is disabled, set history.path or pass --history")
	}

	store, err := history.Open(config.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tWORD\tTRANSLATION\tPAIR\tSTRATEGY")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s→%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Input, e.OutputWord,
			e.SourceLanguage, e.OutputLanguage, e.Strategy)
	}

	return w.Flush()
}

func runModels(ctx context.Context, out io.Writer) error {
	config, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	models, err := llm.NewProvider(config.OpenAI).ChatModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Available OpenAI chat models:")
	for _, model := range models {
		marker := " "
		if model == config.OpenAI.Model {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, model)
	}

	return nil
}
