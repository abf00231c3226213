package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmliussss2024/sitecheck/internal/history"
	"github.com/cmliussss2024/sitecheck/internal/probe"
	"github.com/cmliussss2024/sitecheck/pkg/sitecheck"
)

var (
	version = "1.0.0"

	// Global flags
	settingsFile string
	verbose      bool
	debug        bool

	// Check flags
	workers     int
	maxAttempts int
	timeout     int
	retryDelay  int
	rateLimit   float64
	userAgent   string
	insecure    bool
	outputFile  string
	historyPath string
	doPrune     bool
	assumeYes   bool

	// History flags
	historyLimit int
)

const defaultConfigPath = "config.json"

func main() {
	rootCmd := &cobra.Command{
		Use:   "sitecheck",
		Short: "sitecheck - API endpoint availability checker",
		Long: `sitecheck - Validates the remote API endpoints declared in an api_site
configuration file, classifies each as valid or invalid, and can rewrite
the configuration to drop the invalid entries.`,
		Version: version,
	}

	checkCmd := &cobra.Command{
		Use:   "check [config-file]",
		Short: "Probe all configured endpoints",
		Long:  "Probe every endpoint in the configuration file and print a validity report.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
	}

	pruneCmd := &cobra.Command{
		Use:   "prune [config-file]",
		Short: "Probe endpoints and remove the invalid ones",
		Long: `Probe every endpoint and remove the invalid entries from the configuration
file. The original file is backed up to a .backup sibling first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPrune,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded probe runs",
		Long:  "Show the results of previously recorded probe runs.",
		RunE:  runHistory,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&settingsFile, "settings", "s", "", "Settings file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")

	// Check flags (shared with prune)
	for _, cmd := range []*cobra.Command{checkCmd, pruneCmd} {
		cmd.Flags().IntVarP(&workers, "workers", "w", 20, "Number of concurrent probe workers")
		cmd.Flags().IntVarP(&maxAttempts, "max-attempts", "a", 3, "Attempt rounds per endpoint")
		cmd.Flags().IntVarP(&timeout, "timeout", "t", 10, "Request timeout in seconds")
		cmd.Flags().IntVar(&retryDelay, "retry-delay", 1, "Pause between attempt rounds in seconds")
		cmd.Flags().Float64VarP(&rateLimit, "rate-limit", "r", 50, "Requests per second (0 disables)")
		cmd.Flags().StringVar(&userAgent, "user-agent", "", "Custom User-Agent header")
		cmd.Flags().BoolVar(&insecure, "insecure", true, "Skip TLS certificate verification")
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write JSON results to file")
		cmd.Flags().StringVar(&historyPath, "history", "", "Record the run in a history database")
		cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the prune confirmation prompt")
	}
	checkCmd.Flags().BoolVar(&doPrune, "prune", false, "Offer to remove invalid endpoints after the check")

	// History flags
	historyCmd.Flags().StringVar(&historyPath, "history", "sitecheck-history.db", "History database path")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildConfig assembles the checker configuration from the settings file
// and command-line flags. Flags that were set explicitly win.
func buildConfig(cmd *cobra.Command) (*sitecheck.Config, error) {
	config := sitecheck.DefaultConfig()

	if settingsFile != "" {
		fileConfig, err := sitecheck.LoadFromFile(settingsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings file: %w", err)
		}
		config = fileConfig
	}

	if cmd.Flags().Changed("workers") {
		config.Workers = workers
	}
	if cmd.Flags().Changed("max-attempts") {
		config.MaxAttempts = maxAttempts
	}
	if cmd.Flags().Changed("timeout") {
		config.Timeout = time.Duration(timeout) * time.Second
	}
	if cmd.Flags().Changed("retry-delay") {
		config.RetryDelay = time.Duration(retryDelay) * time.Second
	}
	if cmd.Flags().Changed("rate-limit") {
		config.RateLimit.Enabled = rateLimit > 0
		config.RateLimit.RequestsPerSecond = rateLimit
	}
	if cmd.Flags().Changed("user-agent") {
		config.UserAgent = userAgent
	}
	if cmd.Flags().Changed("insecure") {
		config.Insecure = insecure
	}
	if cmd.Flags().Changed("output") {
		config.Output.FilePath = outputFile
	}
	if cmd.Flags().Changed("history") {
		config.History.Enabled = historyPath != ""
		config.History.Path = historyPath
	}

	config.Verbose = verbose
	config.Debug = debug

	return config, nil
}

func configPathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultConfigPath
}

func runCheck(cmd *cobra.Command, args []string) error {
	return check(cmd, args, doPrune)
}

func runPrune(cmd *cobra.Command, args []string) error {
	return check(cmd, args, true)
}

func check(cmd *cobra.Command, args []string, prune bool) error {
	configPath := configPathArg(args)

	config, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	checker, err := sitecheck.New(sitecheck.WithConfig(config))
	if err != nil {
		return fmt.Errorf("failed to create checker: %w", err)
	}

	run, err := checker.Run(context.Background(), configPath)
	if err != nil {
		return err
	}

	if prune {
		if _, err := checker.Prune(run, configPath, assumeYes); err != nil {
			return fmt.Errorf("prune failed: %w", err)
		}
	}

	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(historyPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	runs, err := store.Runs(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No recorded runs")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  %d/%d valid  %s\n",
			run.StartedAt.Format(time.RFC3339),
			run.ID,
			run.ValidCount,
			run.Total,
			run.ConfigPath)
		if verbose {
			for _, r := range run.Results {
				mark := "✓"
				if !r.OK {
					mark = "✗"
				}
				status := fmt.Sprintf("%d", r.StatusCode)
				if r.StatusCode == probe.StatusNoResponse {
					status = r.Message
				}
				fmt.Printf("  %s %s: %s (%s)\n", mark, r.Name, r.URL, status)
			}
		}
	}

	return nil
}
