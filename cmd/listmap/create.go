// Create command adds a new item to a list.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createData string

var createCmd = &cobra.Command{
	Use:   "create <list>",
	Short: "Create a new list item",
	Long: `Create adds a new item to the named list from a JSON object.

Example:
  listmap create "Team Tasks" --data '{"Title": "Write docs", "State": "open"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createData, "data", "", "item fields as a JSON object (required)")
	_ = createCmd.MarkFlagRequired("data")
}

func runCreate(cmd *cobra.Command, args []string) error {
	fields, err := parseFields(createData)
	if err != nil {
		return err
	}

	rt, closer, err := recordType(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	item := rt.NewRecord(fields)
	res, err := rt.Create(cmd.Context(), item, nil)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	if _, err := res.Await(cmd.Context()); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return printRecord(res.Record)
}
