/*
Copyright © 2025 legalpt
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "legal-rag-be",
	Short: "Retrieval backend for Portuguese legal documents",
	Long: `legal-rag-be ingests diplomas from Diário da República, indexes
them as embedded chunks and answers natural-language questions about
Portuguese legislation with cited sources.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.yaml", "config file")
}
