// List command queries items from a list with optional query options.
package main

import (
	"fmt"

	"github.com/lasarvit/listmap/pkg/listmap"
	"github.com/spf13/cobra"
)

var (
	listFilter  string
	listSelect  string
	listOrderBy string
	listTop     int
	listSkip    int
)

var listCmd = &cobra.Command{
	Use:   "list <list>",
	Short: "List items with optional query options",
	Long: `List queries items from the named list.

Example:
  listmap list "Team Tasks"
  listmap list "Team Tasks" --filter "State eq 'open'" --orderby "Title" --top 10`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listFilter, "filter", "", "filter expression")
	listCmd.Flags().StringVar(&listSelect, "select", "", "comma-separated fields to return")
	listCmd.Flags().StringVar(&listOrderBy, "orderby", "", "order expression (e.g. \"Title desc\")")
	listCmd.Flags().IntVar(&listTop, "top", 0, "maximum number of items")
	listCmd.Flags().IntVar(&listSkip, "skip", 0, "number of items to skip")
}

func runList(cmd *cobra.Command, args []string) error {
	rt, closer, err := recordType(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	q := listmap.Query{}
	if listFilter != "" {
		q["filter"] = listFilter
	}
	if listSelect != "" {
		q["select"] = listSelect
	}
	if listOrderBy != "" {
		q["orderby"] = listOrderBy
	}
	if listTop > 0 {
		q["top"] = listTop
	}
	if listSkip > 0 {
		q["skip"] = listSkip
	}

	res, err := rt.Query(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("query items: %w", err)
	}
	if _, err := res.Await(cmd.Context()); err != nil {
		return fmt.Errorf("query items: %w", err)
	}
	return printRecords(res.Records)
}
