package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"hsdesk/internal/desk"
	"hsdesk/internal/screen"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change backend settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the settings document",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "GetSettings", false)
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.NewSettings(screen.NewTerminalNotifier(os.Stdin, os.Stdout))
		s.Mount(cmd.Context())
		defer s.Unmount()

		v := s.View()
		if err := screen.RenderSettings(os.Stdout, v); err != nil {
			return err
		}
		if v.State == screen.Failed {
			return errors.New(v.Message)
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set CATEGORY.FIELD=VALUE...",
	Short: "Change settings and save the whole document",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		type change struct {
			category, field string
			value           any
		}
		var changes []change
		for _, arg := range args {
			key, raw, ok := strings.Cut(arg, "=")
			category, field, okKey := strings.Cut(key, ".")
			if !ok || !okKey || category == "" || field == "" {
				return fmt.Errorf("expected CATEGORY.FIELD=VALUE, got %q", arg)
			}
			changes = append(changes, change{category, field, parseValue(raw)})
		}

		a, err := newApp(cmd.Context(), "SaveSettings", false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		s := a.NewSettings(screen.NewTerminalNotifier(os.Stdin, os.Stdout))
		s.Mount(ctx)
		defer s.Unmount()

		if v := s.View(); v.State != screen.Ready {
			return errors.New(v.Message)
		}
		for _, c := range changes {
			if err := s.Set(c.category, c.field, c.value); err != nil {
				return err
			}
		}

		pending := s.Pending()
		if len(pending) == 0 {
			fmt.Println("Nothing changed.")
			return nil
		}
		fmt.Printf("Saving %s\n", strings.Join(pending, ", "))
		return s.Save(ctx)
	},
}

// parseValue interprets a command-line value as a JSON bool, number or string.
func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return json.Number(raw)
	}
	return raw
}

var settingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Encrypt the settings document into the snapshot vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ExportSettings", false)
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.ExportSettings(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Settings exported to %s\n", name)
		return nil
	},
}

var settingsImportCmd = &cobra.Command{
	Use:   "import [SNAPSHOT]",
	Short: "Restore a settings snapshot (default: the latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := desk.LatestSnapshot
		if len(args) > 0 {
			name = args[0]
		}

		a, err := newApp(cmd.Context(), "ImportSettings", false)
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		doc, err := a.ImportSettings(cmd.Context(), name, pass)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %d categories from %s\n", len(doc.Categories()), name)
		return nil
	},
}

var settingsSnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List settings snapshots in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ListSnapshots", false)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.ListSnapshots()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}
