// Command billdesk runs the billing API and its maintenance tasks.
//
//	billdesk                 # same as serve
//	billdesk serve
//	billdesk migrate
//	billdesk route:list
//	billdesk account:create-super-admin --name Ops --email ops@example.com --password ...
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "billdesk",
	Short:         "Multi-tenant retail billing API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createSuperAdminCmd)
}
