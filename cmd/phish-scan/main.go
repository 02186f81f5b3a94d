package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	baseURL    string
	timeout    string
	storeType  string
	sqlitePath string
	mysqlDSN   string
	verbose    bool
	jsonLog    bool

	rootCmd = &cobra.Command{
		Use:   "phish-scan",
		Short: "Classify messages for phishing from the command line",
		Long: `phish-scan classifies free-text messages through the remote
classification service, falling back to the built-in heuristic analyzer
when the service is unreachable. It can also browse the merged scan
history and probe service health.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: search standard locations)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "remote classification service base URL")
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", "", "remote request timeout (e.g. 5s)")
	rootCmd.PersistentFlags().StringVar(&storeType, "store", "", "scan store type (memory, sqlite, mysql)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "path to the SQLite scan database")
	rootCmd.PersistentFlags().StringVar(&mysqlDSN, "mysql-dsn", "", "MySQL DSN for the scan database")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "output logs in JSON format")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(healthCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
