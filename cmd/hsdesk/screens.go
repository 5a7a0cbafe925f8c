package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"hsdesk/internal/screen"

	"github.com/spf13/cobra"
)

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Show a pairing code for a new device",
	RunE: func(cmd *cobra.Command, args []string) error {
		pngPath, _ := cmd.Flags().GetString("png")
		invert, _ := cmd.Flags().GetBool("invert")

		a, err := newApp(cmd.Context(), "GeneratePairingCode", false)
		if err != nil {
			return err
		}
		defer a.Close()

		p := a.NewPairing()
		p.Mount(cmd.Context())
		defer p.Unmount()

		v := p.View()
		if err := screen.RenderPairing(os.Stdout, v, invert); err != nil {
			return err
		}
		if v.State != screen.Ready {
			return errors.New(v.Message)
		}

		if pngPath != "" {
			f, err := os.Create(pngPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", pngPath, err)
			}
			defer f.Close()
			if err := screen.WriteQRPNG(f, v.QRContent, 512); err != nil {
				return err
			}
			fmt.Printf("QR code written to %s\n", pngPath)
		}
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [PATH]",
	Short: "List a folder on the storage backend",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grid, _ := cmd.Flags().GetBool("grid")

		a, err := newApp(cmd.Context(), "ListFiles", false)
		if err != nil {
			return err
		}
		defer a.Close()

		path := "/"
		if len(args) > 0 {
			path = args[0]
		}

		e := a.NewExplorer()
		e.SetGrid(grid)
		e.Navigate(cmd.Context(), path)
		defer e.Unmount()

		if err := screen.RenderExplorer(os.Stdout, e); err != nil {
			return err
		}
		if msg := e.View().Message; msg != "" {
			return errors.New(msg)
		}
		return nil
	},
}

const exploreHelp = `Commands:
  open NAME   enter a folder or select a file
  up          go to the parent folder
  cd PATH     go to an absolute path
  refresh     list the current folder again
  grid        toggle list/grid view
  help        show this help
  quit        leave
`

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse the storage backend interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Explore", false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		e := a.NewExplorer()
		e.Mount(ctx)
		defer e.Unmount()

		render := func() {
			if err := screen.RenderExplorer(os.Stdout, e); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		render()

		in := bufio.NewScanner(os.Stdin)
		for {
			fmt.Printf("%s> ", e.View().Path)
			if !in.Scan() {
				fmt.Println()
				return in.Err()
			}

			verb, arg, _ := strings.Cut(strings.TrimSpace(in.Text()), " ")
			arg = strings.TrimSpace(arg)
			switch verb {
			case "":
				continue
			case "open":
				if !e.OpenName(ctx, arg) {
					fmt.Printf("No entry named %q.\n", arg)
					continue
				}
			case "up", "..":
				e.Up(ctx)
			case "cd":
				if !strings.HasPrefix(arg, "/") {
					fmt.Println("cd needs an absolute path.")
					continue
				}
				e.Navigate(ctx, arg)
			case "refresh", "ls":
				e.Refresh(ctx)
			case "grid":
				e.SetGrid(!e.View().Grid)
			case "help", "?":
				fmt.Print(exploreHelp)
				continue
			case "quit", "exit", "q":
				return nil
			default:
				fmt.Printf("Unknown command %q. Type help.\n", verb)
				continue
			}
			render()
		}
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show storage statistics and recent activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Dashboard", false)
		if err != nil {
			return err
		}
		defer a.Close()

		d := a.NewDashboard()
		d.Mount(cmd.Context())
		defer d.Unmount()

		v := d.View()
		if err := screen.RenderDashboard(os.Stdout, v); err != nil {
			return err
		}
		if v.State == screen.Failed {
			return errors.New(v.Message)
		}
		return nil
	},
}
