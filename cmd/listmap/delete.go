// Delete command removes a list item.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteETag string

var deleteCmd = &cobra.Command{
	Use:   "delete <list> <id>",
	Short: "Delete a list item",
	Long: `Delete removes the item with the given ID from the named list.

Example:
  listmap delete "Team Tasks" 12`,
	Args: cobra.ExactArgs(2),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteETag, "etag", "", "concurrency token from a previous get")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[1], err)
	}

	rt, closer, err := recordType(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	item := rt.NewRecord(map[string]any{"Id": id})
	item.Meta.ETag = deleteETag

	res, err := rt.Delete(cmd.Context(), item)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if _, err := res.Await(cmd.Context()); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	fmt.Printf("Deleted %s item %d\n", args[0], id)
	return nil
}
