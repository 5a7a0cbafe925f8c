package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Entry types returned by the listing endpoint.
const (
	EntryFolder = "dossier"
	EntryFile   = "fichier"
)

// FileEntry is one item of a directory listing. It has no identity beyond Path.
type FileEntry struct {
	Name       string    `json:"nom"`
	Path       string    `json:"chemin"`
	Type       string    `json:"type"`
	SizeBytes  int64     `json:"tailleOctets"`
	ModifiedAt Timestamp `json:"modifieLe"`
}

func (e FileEntry) IsFolder() bool { return e.Type == EntryFolder }

// Listing is the body of GET /api/v1/fichiers/lister. Exactly one of
// Entries or Error is meaningful.
type Listing struct {
	CurrentPath string      `json:"chemin_actuel"`
	Entries     []FileEntry `json:"contenu"`
	Error       string      `json:"erreur"`
}

// Timestamp accepts RFC 3339 and the offset-less ISO 8601 form the backend
// emits (Python isoformat of a local time).
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func ParseTimestamp(s string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{t}, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// Status is the body of GET /status.
type Status struct {
	Status  string `json:"statut"`
	Message string `json:"message"`
}

func (s Status) OK() bool { return strings.EqualFold(s.Status, "ok") }

// DashboardStats is the body of GET /api/v1/tableau-de-bord/statistiques.
type DashboardStats struct {
	Storage        StorageStats      `json:"stockage"`
	Devices        []ConnectedDevice `json:"appareilsConnectes"`
	RecentActivity []ActivityEntry   `json:"activiteRecente"`
}

type StorageStats struct {
	TotalGB   float64          `json:"totalGo"`
	UsedGB    float64          `json:"utiliseGo"`
	Breakdown []StorageSegment `json:"ventilation"`
}

// UsedPercent returns used/total as a percentage, 0 when the total is unknown.
func (s StorageStats) UsedPercent() float64 {
	if s.TotalGB <= 0 {
		return 0
	}
	return s.UsedGB / s.TotalGB * 100
}

type StorageSegment struct {
	Type   string  `json:"type"`
	SizeGB float64 `json:"tailleGo"`
}

type ConnectedDevice struct {
	Name   string `json:"nom"`
	Type   string `json:"type"`
	Status string `json:"statut"`
}

type ActivityEntry struct {
	Time   string `json:"heure"`
	Action string `json:"action"`
}
