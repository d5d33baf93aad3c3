// Shared helpers for listmap CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lasarvit/listmap/internal/sqlite"
	"github.com/lasarvit/listmap/pkg/listmap"
	"github.com/lasarvit/listmap/pkg/odata"
)

// localDBFile is the database filename inside the data directory.
const localDBFile = "lists.db"

// newTransport builds the transport selected by config and flags: the OData
// adapter for "remote", the SQLite backend for "local". The returned closer
// releases backend resources and is always non-nil.
func newTransport() (listmap.Transport, func() error, error) {
	backend := configBackend
	if flagSite != "" {
		backend = backendRemote
	}

	switch backend {
	case backendRemote:
		site := flagSite
		if site == "" {
			site = configSiteURL
		}
		if site == "" {
			return nil, nil, fmt.Errorf("remote backend requires --site or site_url in config")
		}
		adapter, err := odata.New(site)
		if err != nil {
			return nil, nil, fmt.Errorf("create remote adapter: %w", err)
		}
		return adapter, func() error { return nil }, nil

	case backendLocal:
		dataDir, err := resolveDataDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve data dir: %w", err)
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := sqlite.Open(filepath.Join(dataDir, localDBFile))
		if err != nil {
			return nil, nil, fmt.Errorf("open local backend: %w", err)
		}
		return db, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q (valid: remote, local)", backend)
	}
}

// recordType binds a RecordType for the named list to the configured transport.
func recordType(list string) (*listmap.RecordType, func() error, error) {
	transport, closer, err := newTransport()
	if err != nil {
		return nil, nil, err
	}
	rt, err := listmap.New(transport, list, nil)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return rt, closer, nil
}

// printRecord writes one record's fields to stdout, honoring --json.
func printRecord(rec *listmap.Record) error {
	if flagJSON {
		return printJSON(rec.Fields)
	}
	output, err := json.MarshalIndent(rec.Fields, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// printRecords writes a record collection to stdout, honoring --json.
func printRecords(recs []*listmap.Record) error {
	fields := make([]map[string]any, len(recs))
	for i, rec := range recs {
		fields[i] = rec.Fields
	}
	return printJSON(fields)
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// parseFields unmarshals a --data JSON object into record fields.
func parseFields(data string) (map[string]any, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("invalid --data JSON: %w", err)
	}
	return fields, nil
}
