// Command claims-api serves the vehicle claims REST API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "claims-api",
		Short:         "Vehicle insurance claims API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
