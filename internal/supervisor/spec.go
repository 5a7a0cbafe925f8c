package supervisor

import (
	"fmt"
	"sort"
	"strings"

	"hsdesk/internal/config"
)

// Spec describes one child process to launch.
type Spec struct {
	Name        string
	Command     string
	Args        []string
	Dir         string
	Env         []string // KEY=VALUE pairs added to the inherited environment
	Port        int
	HealthURL   string // empty when the process has no readiness probe
	Restart     string
	MaxRestarts int
}

// CommandLine returns the command and its arguments joined for display.
func (s Spec) CommandLine() string {
	return strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
}

// SpecsFromConfig converts backend entries into launch specs, preserving order.
func SpecsFromConfig(backends []config.BackendConfig) []Spec {
	specs := make([]Spec, 0, len(backends))
	for _, b := range backends {
		spec := Spec{
			Name:        b.Name,
			Command:     b.Command,
			Args:        append([]string(nil), b.Args...),
			Dir:         b.WorkingDirectory,
			Port:        b.Port,
			Restart:     b.Restart,
			MaxRestarts: b.MaxRestarts,
		}
		if spec.Restart == "" {
			spec.Restart = config.RestartNever
		}
		if b.Port > 0 && b.HealthPath != "" {
			path := b.HealthPath
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			spec.HealthURL = fmt.Sprintf("http://127.0.0.1:%d%s", b.Port, path)
		}

		keys := make([]string, 0, len(b.Env))
		for k := range b.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			spec.Env = append(spec.Env, k+"="+b.Env[k])
		}

		specs = append(specs, spec)
	}
	return specs
}
