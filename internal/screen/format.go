package screen

import (
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"hsdesk/internal/api"
)

var sizeUnits = []string{"o", "Ko", "Mo", "Go", "To"}

// FormatSize renders a byte count with base-1024 units, rounded to at most
// two decimals: 0 -> "0 o", 2048 -> "2 Ko", 1536 -> "1.5 Ko".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 o"
	}

	unit := 0
	for unit < len(sizeUnits)-1 && n >= int64(1)<<(10*(unit+1)) {
		unit++
	}

	v := float64(n) / math.Pow(1024, float64(unit))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[unit]
}

// FormatDate renders t as a French short date (JJ/MM/AAAA) in local time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006")
}

// Icon returns the glyph shown next to an entry.
func Icon(e api.FileEntry) string {
	if e.IsFolder() {
		return "📁"
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(e.Name), "."))
	switch ext {
	case "jpg", "png", "gif":
		return "🖼️"
	case "mp4", "mov", "avi":
		return "🎬"
	case "doc", "docx", "pdf":
		return "📄"
	default:
		return "❔"
	}
}

// ParentPath strips the last segment of p. The parent of "/" is "/".
func ParentPath(p string) string {
	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) <= 1 {
		return "/"
	}
	return "/" + strings.Join(segments[:len(segments)-1], "/")
}
