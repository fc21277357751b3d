// ABOUTME: CLI commands for Charm-based sync.
// ABOUTME: Supports link, unlink, status, and an on-demand sync for the charm backend.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/fatih/color"
	"github.com/harperreed/healthstatus/internal/charm"
	"github.com/harperreed/healthstatus/internal/config"
	"github.com/spf13/cobra"
)

var errNotCharm = errors.New("sync requires the charm backend (set backend to \"charm\" or pass --backend charm)")

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Sync health status data across devices",
	Long: `Sync data across devices using Charm Cloud when the charm backend is in use.

Your data is E2E encrypted with your SSH key before upload.

GETTING STARTED:

  1. Switch the backend:   set "backend": "charm" in config.json
  2. Link your device:     healthstatus sync link
  3. Check status:         healthstatus sync status

COMMANDS:

  link        Link this device to your Charm account
  unlink      Disconnect this device from Charm
  status      Show sync status
  now         Pull and push changes immediately

Data syncs automatically after each write.`,
}

// charmStore returns the open store as a charm store.
func charmStore() (*charm.Store, error) {
	cs, ok := store.(*charm.Store)
	if !ok {
		return nil, errNotCharm
	}
	return cs, nil
}

func runCharm(args ...string) error {
	charmCmd := exec.Command("charm", args...)
	charmCmd.Stdin = os.Stdin
	charmCmd.Stdout = os.Stdout
	charmCmd.Stderr = os.Stderr
	return charmCmd.Run()
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to Charm",
	Long: `Link this device to your Charm account.

If you don't have a Charm account, one will be created using your SSH key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := charmStore()
		if err != nil {
			return err
		}
		if err := runCharm("link"); err != nil {
			return fmt.Errorf("failed to link: %w\n\nMake sure 'charm' CLI is installed: go install github.com/charmbracelet/charm@latest", err)
		}

		color.Green("\n✓ Device linked to Charm")
		if err := cs.Client().Sync(); err != nil {
			color.Yellow("⚠ Initial sync failed: %v", err)
		} else {
			color.Green("✓ Initial sync complete")
		}
		return nil
	},
}

var syncUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Disconnect from Charm",
	Long:  "Disconnect this device from Charm. Local data is kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := charmStore(); err != nil {
			return err
		}
		if err := runCharm("unlink"); err != nil {
			return fmt.Errorf("failed to unlink: %w", err)
		}
		color.Green("✓ Device unlinked from Charm")
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Backend:", cfg.GetBackend())
		if _, err := charmStore(); err != nil {
			color.Yellow("Sync is off for this backend")
			return nil
		}

		host := cfg.CharmHost
		if host == "" {
			host = charm.DefaultHost
		}
		fmt.Println("Server: ", host)
		fmt.Println("KV:     ", charm.DefaultDBName)
		fmt.Println("Config: ", config.GetConfigPath())

		if uid, err := currentUserID(); err == nil {
			types, err := dash.Registry().List(cmd.Context(), uid)
			if err == nil {
				fmt.Printf("  Status types: %d\n", len(types))
			}
		}
		color.Green("✓ Connected to Charm")
		return nil
	},
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Sync immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := charmStore()
		if err != nil {
			return err
		}
		if err := cs.Client().Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		color.Green("✓ Sync complete")
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncUnlinkCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncNowCmd)

	rootCmd.AddCommand(syncCmd)
}
