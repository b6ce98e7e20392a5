package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sneldb/sneldb.go/pkg/models"
)

var execCmd = &cobra.Command{
	Use:   "exec <command...>",
	Short: "Execute one command and print the resulting rows",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		records, err := client.Execute(context.Background(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return renderRecords(records)
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func renderRecords(records []*models.Record) error {
	if len(records) == 0 {
		pterm.Println("(no rows)")
		return nil
	}

	// Column set and order come from the first record; rows missing a key
	// render blank.
	columns := records[0].Keys()
	data := pterm.TableData{columns}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, column := range columns {
			if v, ok := rec.Get(column); ok {
				row[i] = fmt.Sprint(v)
			}
		}
		data = append(data, row)
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
