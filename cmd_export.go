package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/planr/internal/export"
)

var resetForce bool

var exportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Write every planner record to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Replace all planner data with a JSON export",
	Long:  "Replace all planner data with a JSON export. The file is validated in full before anything is written; a bad file leaves the current data untouched.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all planner data",
	Long:  "Delete every quarter, week, day, session and review and restore default settings. Requires --force or interactive confirmation.",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false,
		"Skip confirmation prompt")
}

func runExport(cmd *cobra.Command, args []string) error {
	_, p, s, err := setupCLI(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := export.ToJSON(p, args[0]); err != nil {
		return err
	}
	info, err := p.StorageInfo()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"path":     args[0],
			"quarters": info.Quarters,
			"weeks":    info.Weeks,
			"days":     info.Days,
			"sessions": info.Sessions,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d quarters, %d weeks, %d days and %d sessions to %s\n",
		info.Quarters, info.Weeks, info.Days, info.Sessions, args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	_, p, s, err := setupCLI(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := export.FromJSON(p, args[0]); err != nil {
		return err
	}
	info, err := p.StorageInfo()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"path":     args[0],
			"imported": true,
			"keys":     info.Keys,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%d records)\n", args[0], info.Keys)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetForce {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintln(errOut, "WARNING: This will permanently delete all planner data.")
		fmt.Fprint(errOut, "Type 'reset' to confirm: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if strings.TrimSpace(input) != "reset" {
			fmt.Fprintln(errOut, "Aborted.")
			return nil
		}
	}

	_, p, s, err := setupCLI(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := p.ClearAll(); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"reset": true})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All planner data deleted")
	return nil
}
