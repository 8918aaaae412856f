// Package main provides the entry point for the novel harvester CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Novel ingestion pipeline",
	Long:  "Harvester crawls configured source sites for serialized novels, cleans and orders their chapters, and maintains a PostgreSQL catalog plus a replayable ledger of failed fetches.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
