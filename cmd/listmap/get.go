// Get command retrieves one item from a list by ID.
package main

import (
	"fmt"
	"strconv"

	"github.com/lasarvit/listmap/pkg/listmap"
	"github.com/spf13/cobra"
)

var getSelect string

var getCmd = &cobra.Command{
	Use:   "get <list> <id>",
	Short: "Get a list item by ID",
	Long: `Get retrieves one item from the named list by its ID.

Example:
  listmap get "Team Tasks" 12
  listmap get Announcements 3 --select Title,Body`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVar(&getSelect, "select", "", "comma-separated fields to return")
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[1], err)
	}

	rt, closer, err := recordType(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	var q listmap.Query
	if getSelect != "" {
		q = listmap.Query{"select": getSelect}
	}

	res, err := rt.Get(cmd.Context(), id, q)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if _, err := res.Await(cmd.Context()); err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	return printRecord(res.Record)
}
