package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hsdesk/internal/app"
	"hsdesk/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an HSApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Run", "ListFiles").
func newApp(ctx context.Context, operation string, logToStderr bool) (*app.HSApp, error) {
	paths, err := app.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("resolving paths: %w", err)
	}

	cfg, err := config.ReadFromFile(paths.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewHSApp(ctx, cfg, operation, app.Options{
		LogToStderr: logToStderr,
		PIDFile:     paths.PIDFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on stderr and reads without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "hsdesk",
	Short:        "Hybrid Storage desktop shell",
	SilenceUsage: true,
}

// run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the backends and open the window",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("resolving paths: %w", err)
		}
		activated, err := app.ActivateRunning(paths.PIDFile)
		if err != nil {
			return fmt.Errorf("checking for a running shell: %w", err)
		}
		if activated {
			fmt.Println("hsdesk is already running; window reactivated.")
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "Run", true)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Run(ctx, app.RunOptions{})
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the backend is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Status", false)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend at %s: %w", a.Config().API.BaseURL, err)
		}
		fmt.Printf("%s  %s\n", st.Status, st.Message)
		if !st.OK() {
			return errors.New("backend reports a problem")
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")

		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to resolve paths: %w", err)
		}

		hostID := uuid.New().String()
		cfg, err := config.NewConfig(hostID, paths.BaseDir, profile)
		if err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}

		if err := config.Init(paths.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", paths.ConfigPath)
		fmt.Printf("Host ID:  %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", paths.BaseDir)
		fmt.Printf("Profile:  %s\n", profile)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to resolve paths: %w", err)
		}

		cfg, err := config.ReadFromFile(paths.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", paths.ConfigPath)
		fmt.Printf("Host ID:  %s\n", cfg.HostID)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Profile:  %s\n", cfg.Profile)
		fmt.Printf("Window:   %s\n", cfg.Window.URL)
		fmt.Printf("API:      %s\n", cfg.API.BaseURL)
		fmt.Println("\nBackends:")
		for _, b := range cfg.Backends {
			port := "-"
			if b.Port > 0 {
				port = fmt.Sprint(b.Port)
			}
			fmt.Printf("  %-10s port=%-5s restart=%-10s %s %s\n", b.Name, port, b.Restart, b.Command, strings.Join(b.Args, " "))
		}
		return nil
	},
}

var configVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the snapshot vault",
}

var configVaultValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the snapshot vault is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ValidateVault", false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ValidateVault(); err != nil {
			return fmt.Errorf("vault check failed: %w", err)
		}
		fmt.Printf("Vault %q is ready.\n", a.Config().Vaults[0].Name)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the settings snapshot keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "SetupKeys", false)
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return errors.New("passphrases do not match")
		}

		if err := a.SetupKeys(pass); err != nil {
			return err
		}
		fmt.Printf("Public key written to %s\n", a.Config().Encryption.PublicKeyPath)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View launcher sessions and process runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "GetHistory", false)
		if err != nil {
			return err
		}
		defer a.Close()

		history, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(history) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}

		for _, h := range history {
			s := h.Session
			duration := ""
			if s.FinishedAt.Valid {
				duration = s.FinishedAt.Time.Sub(s.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %-6s  %s  %-8s  %s\n",
				s.ID,
				s.Operation,
				s.Profile,
				s.StartedAt.Local().Format("2006-01-02 15:04:05"),
				s.Status,
				duration,
			)
			for _, r := range h.Runs {
				code := "-"
				if r.ExitCode.Valid {
					code = fmt.Sprint(r.ExitCode.Int64)
				}
				fmt.Printf("      %-10s pid=%-7d attempt=%d  %-8s exit=%s\n", r.Name, r.Pid, r.Attempt, r.Status, code)
			}
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringP("profile", "p", config.ProfileSingle, "Launcher profile: single or dual")
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configVaultCmd)
	configVaultCmd.AddCommand(configVaultValidateCmd)

	keysCmd.AddCommand(keysInitCmd)

	// settings subcommands
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsExportCmd)
	settingsCmd.AddCommand(settingsImportCmd)
	settingsCmd.AddCommand(settingsSnapshotsCmd)

	// root commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(pairCmd)
	pairCmd.Flags().String("png", "", "Also write the QR code to this PNG file")
	pairCmd.Flags().Bool("invert", false, "Invert QR colors for light terminals")
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolP("grid", "g", false, "Grid view: names only")
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of sessions to show")
}
