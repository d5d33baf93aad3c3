// Root command for the listmap CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/lasarvit/listmap/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagSite      string
	flagDataDir   string
	flagJSON      bool
)

// Config values loaded by PersistentPreRunE for all subcommands.
var (
	configSiteURL string
	configBackend string
	configDataDir string
)

var rootCmd = &cobra.Command{
	Use:          "listmap",
	Short:        "listmap maps named remote lists onto records with CRUD operations",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configSiteURL = cfg.GetString(cfgKeySiteURL)
		configBackend = cfg.GetString(cfgKeyBackend)
		configDataDir = cfg.GetString(cfgKeyDataDir)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagSite, "site", "", "site URL of the remote list service (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory for the local backend (default: $(CWD)/.listmap-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
}

// resolveConfigDir returns the configuration directory following the
// precedence chain: --config-dir flag > LISTMAP_CONFIG_DIR env > default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir returns the local backend's data directory following the
// precedence chain: --data-dir flag > config data_dir > LISTMAP_DATA_DIR env
// > default $(CWD)/.listmap-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}
