package screen

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// RenderExplorer writes the explorer view as text.
func RenderExplorer(w io.Writer, e *Explorer) error {
	v := e.View()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	mode := "Liste"
	if v.Grid {
		mode = "Grille"
	}
	fmt.Fprintf(tw, "Chemin: %s\t(%s)\n", v.Path, mode)

	switch {
	case v.Loading:
		fmt.Fprintln(tw, "Chargement...")
	case v.Message != "":
		fmt.Fprintln(tw, v.Message)
	default:
		for _, r := range e.Rows() {
			marker := " "
			if r.Selected {
				marker = ">"
			}
			if v.Grid {
				fmt.Fprintf(tw, "%s %s %s\n", marker, r.Icon, r.Name)
				continue
			}
			fmt.Fprintf(tw, "%s %s %s\t%s\t%s\n", marker, r.Icon, r.Name, r.Size, r.Date)
		}
	}

	if sel := v.Selected; sel != nil {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Détails")
		fmt.Fprintf(tw, "  %s Nom:\t%s\n", Icon(*sel), sel.Name)
		fmt.Fprintf(tw, "  Taille:\t%s\n", FormatSize(sel.SizeBytes))
		fmt.Fprintf(tw, "  Modifié le:\t%s\n", FormatDate(sel.ModifiedAt.Time))
	}
	return tw.Flush()
}

// RenderPairing writes the pairing view; the QR code is drawn when ready.
func RenderPairing(w io.Writer, v PairingView, invert bool) error {
	fmt.Fprintln(w, "Appairer un nouvel appareil")
	switch v.State {
	case Ready:
	case Failed:
		_, err := fmt.Fprintln(w, v.Message)
		return err
	default:
		_, err := fmt.Fprintln(w, "Génération du code...")
		return err
	}

	fmt.Fprintln(w, "Scannez ce QR code avec l'application mobile Hybrid Storage pour connecter votre appareil.")
	if err := RenderQR(w, v.QRContent, invert); err != nil {
		return err
	}
	if v.HostName != "" {
		fmt.Fprintf(w, "Hôte: %s\n", v.HostName)
	}
	fmt.Fprintf(w, "Empreinte de sécurité: %s\n", v.Fingerprint)
	switch v.Verification {
	case Verified:
		fmt.Fprintln(w, "Empreinte vérifiée.")
	case Mismatch:
		fmt.Fprintln(w, "ATTENTION: l'empreinte ne correspond pas à la clé publique.")
	}
	return nil
}

// RenderSettings writes the settings document as category.field = value lines.
func RenderSettings(w io.Writer, v SettingsView) error {
	switch v.State {
	case Loading, Idle:
		_, err := fmt.Fprintln(w, "Chargement des paramètres...")
		return err
	case Failed:
		_, err := fmt.Fprintln(w, v.Message)
		return err
	}
	if v.Message != "" {
		_, err := fmt.Fprintln(w, v.Message)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, cat := range v.Document.Categories() {
		for _, field := range v.Document.Fields(cat) {
			val, _ := v.Document.Get(cat, field)
			fmt.Fprintf(tw, "%s.%s\t%v\n", cat, field, val)
		}
	}
	return tw.Flush()
}

// RenderDashboard writes the dashboard statistics.
func RenderDashboard(w io.Writer, v DashboardView) error {
	switch v.State {
	case Failed:
		_, err := fmt.Fprintln(w, v.Message)
		return err
	case Ready:
	default:
		_, err := fmt.Fprintln(w, "Chargement...")
		return err
	}

	s := v.Stats
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Stockage\t%.0f / %.0f Go (%.0f%%)\n", s.Storage.UsedGB, s.Storage.TotalGB, s.Storage.UsedPercent())
	for _, seg := range s.Storage.Breakdown {
		fmt.Fprintf(tw, "  %s\t%.0f Go\n", seg.Type, seg.SizeGB)
	}
	if len(s.Devices) > 0 {
		fmt.Fprintln(tw, "Appareils connectés")
		for _, d := range s.Devices {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", d.Name, d.Type, d.Status)
		}
	}
	if len(s.RecentActivity) > 0 {
		fmt.Fprintln(tw, "Activité récente")
		for _, a := range s.RecentActivity {
			fmt.Fprintf(tw, "  %s\t%s\n", a.Time, strings.TrimSpace(a.Action))
		}
	}
	return tw.Flush()
}
