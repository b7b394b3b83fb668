package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/usestring/tsharklog/internal/config"
	"github.com/usestring/tsharklog/internal/dissector"
	"github.com/usestring/tsharklog/internal/extract"
	"github.com/usestring/tsharklog/internal/filter"
	"github.com/usestring/tsharklog/internal/format"
	"github.com/usestring/tsharklog/internal/logging"
	"github.com/usestring/tsharklog/internal/output"
	"github.com/usestring/tsharklog/internal/schema"
)

const (
	version = "0.1.0"
)

var (
	// Capture input
	inputFile   string
	decodePorts []int
	noCTFilter  bool
	tsharkPath  string

	// Access log output
	outputFile   string
	outputFormat string
	matchExpr    string

	// Body handling
	maskKeys      []string
	maxArrayItems int
	maxStringLen  int

	// Diagnostics
	logLevel string
	logFile  string

	// schema subcommand
	validateFile string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tsharklog -i <capture> [flags]",
		Short: "tsharklog - HTTP access logs from packet captures",
		Long: `tsharklog reads a pcap or pcapng capture through tshark and writes one
access-log line per HTTP request. Lines follow the Apache combined format,
extended with the connection endpoints and the request and response bodies
rendered as single-line JSON. Sensitive body fields are masked.

Responses are paired with requests in order within each TCP stream.

Examples:
  # JSON transactions on the default HTTP ports
  tsharklog -i capture.pcapng

  # Also decode port 8080 as HTTP and keep non-JSON bodies
  tsharklog -i capture.pcapng --decode-port 8080 --no-ct-filter

  # Only failed requests, as JSON lines, to a file
  tsharklog -i capture.pcapng --format jsonl --match '.status | tonumber >= 400' -o errors.jsonl

  # HAR document for browser tooling
  tsharklog -i capture.pcapng --format har -o capture.har`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runExtract,
	}

	// Capture input
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input capture file (pcap or pcapng)")
	rootCmd.Flags().IntSliceVar(&decodePorts, "decode-port", nil, "Extra TCP port to decode as HTTP (can be repeated)")
	rootCmd.Flags().BoolVar(&noCTFilter, "no-ct-filter", false, "Do not restrict extraction to application/json transactions")
	rootCmd.Flags().StringVar(&tsharkPath, "tshark", "", "Path to the tshark binary (default: $TSHARK_PATH or tshark)")
	_ = rootCmd.MarkFlagRequired("input")

	// Access log output
	rootCmd.Flags().StringVarP(&outputFile, "out", "o", output.Stdout, "Output file, - for stdout")
	rootCmd.Flags().StringVar(&outputFormat, "format", string(output.FormatCombined), "Output format: combined, jsonl, har")
	rootCmd.Flags().StringVar(&matchExpr, "match", "", "Only write transactions for which this jq expression is truthy")

	// Body handling
	rootCmd.Flags().StringSliceVar(&maskKeys, "mask-key", nil, "JSON key whose value is masked (can be repeated, replaces the default list)")
	rootCmd.Flags().IntVar(&maxArrayItems, "max-array-items", 0, "Trim body arrays to N items (0=unlimited)")
	rootCmd.Flags().IntVar(&maxStringLen, "max-string-len", 0, "Truncate body strings longer than N bytes (0=unlimited)")

	// Diagnostics
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level: debug, info, warn, error (default: $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write diagnostic logs to a rotating file instead of stderr")

	rootCmd.AddCommand(newSchemaCmd())
	return rootCmd
}

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of --format jsonl records",
		Long: `Print the JSON Schema describing one record of --format jsonl output.
With --validate, check a jsonl file against the schema instead.`,
		Args: cobra.NoArgs,
		RunE: runSchema,
	}
	cmd.Flags().StringVar(&validateFile, "validate", "", "Validate this jsonl file against the schema")
	return cmd
}

// loadConfig merges environment configuration with explicitly set flags.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	flags := cmd.Flags()
	if flags.Changed("tshark") {
		cfg.TsharkPath = tsharkPath
	}
	if flags.Changed("mask-key") {
		cfg.MaskKeys = maskKeys
	}
	if flags.Changed("max-array-items") {
		cfg.MaxArrayItems = maxArrayItems
	}
	if flags.Changed("max-string-len") {
		cfg.MaxStringLen = maxStringLen
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	return cfg
}

func setupLogging(cfg *config.Config) (func() error, error) {
	return logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)

	cleanup, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer cleanup()

	if err := validateFlags(); err != nil {
		return err
	}

	f, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	var matcher format.Matcher
	if matchExpr != "" {
		flt, err := filter.Compile(matchExpr)
		if err != nil {
			return err
		}
		matcher = flt
	}

	normalizer, err := extract.NewNormalizer(cfg)
	if err != nil {
		return err
	}

	dst, err := output.Open(outputFile)
	if err != nil {
		return err
	}
	w, err := output.New(f, dst)
	if err != nil {
		_ = dst.Close()
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_, runErr := extract.Run(ctx, extract.Options{
		Dissector: dissector.Options{
			Input:               inputFile,
			DecodePorts:         decodePorts,
			NoContentTypeFilter: noCTFilter,
			Binary:              cfg.TsharkPath,
		},
		Normalizer: normalizer,
		Writer:     w,
		Matcher:    matcher,
	})
	closeErr := w.Close()

	switch {
	case errors.Is(runErr, dissector.ErrNotFound):
		return fmt.Errorf("%w (install Wireshark's tshark or pass --tshark)", runErr)
	case errors.Is(runErr, context.Canceled):
		slog.Warn("interrupted")
		return runErr
	case runErr != nil:
		return runErr
	case closeErr != nil:
		return fmt.Errorf("closing output: %w", closeErr)
	}
	return nil
}

func validateFlags() error {
	if _, err := os.Stat(inputFile); err != nil {
		return fmt.Errorf("input capture: %w", err)
	}
	for _, p := range decodePorts {
		if p < 1 || p > 65535 {
			return fmt.Errorf("invalid --decode-port %d, must be between 1 and 65535", p)
		}
	}
	if maxArrayItems < 0 || maxStringLen < 0 {
		return fmt.Errorf("--max-array-items and --max-string-len must not be negative")
	}
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if validateFile == "" {
		data, err := schema.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	v, err := schema.NewValidator()
	if err != nil {
		return err
	}
	file, err := os.Open(validateFile)
	if err != nil {
		return err
	}
	defer file.Close()

	records, failed, err := v.ValidateStream(file)
	if err != nil {
		return err
	}
	for _, le := range failed {
		fmt.Fprintln(cmd.ErrOrStderr(), le.Error())
	}
	fmt.Fprintln(out, schema.Summary(records, failed))
	if len(failed) > 0 {
		return fmt.Errorf("%s: %d invalid records", validateFile, len(failed))
	}
	return nil
}
