// Package cmd holds the command-line surface of the circulation tool.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"library-circulation/library"
)

var (
	lib     *library.Library
	logger  *zap.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "libcirc",
	Short: "Small library circulation tool",
	Long: `libcirc manages a small library: add books by barcode, register
patrons, check copies out and in, and send due-date reminder emails.
State lives in three CSV files under the data directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			cfg := zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
			logger, err = cfg.Build()
		}
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}

		lib, err = library.Open(library.LoadConfig(), logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

// requireAdmin prompts for credentials and checks them against the auth
// gate. Admin-only commands call this first.
func requireAdmin() error {
	fmt.Print("Admin username: ")
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return fmt.Errorf("no username entered")
	}
	username := strings.TrimSpace(sc.Text())

	password, err := readPassword("Admin password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if !lib.Gate.IsAdmin(username, password) {
		return fmt.Errorf("invalid admin credentials")
	}
	return nil
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}
