// Package main provides the listmap CLI: CRUD against named remote lists
// over either the HTTP adapter or the local SQLite backend.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}
