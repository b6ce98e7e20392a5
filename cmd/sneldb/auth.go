package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the AUTH exchange and print the issued session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		token, err := client.Authenticate(context.Background())
		if err != nil {
			return err
		}
		pterm.Success.Println("authenticated")
		pterm.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
