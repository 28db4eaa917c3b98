package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	serve := serveCmd()
	rootCmd := &cobra.Command{
		Use:           "ordersystem",
		Short:         "Order and payment lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
