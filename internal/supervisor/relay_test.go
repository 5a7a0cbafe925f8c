package supervisor

import (
	"io"
	"os"
	"strings"
	"sync"
	"testing"
)

type lineLogger struct {
	mu    sync.Mutex
	lines []string
	level []string
}

func (l *lineLogger) add(level, msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, msg)
	l.level = append(l.level, level)
	l.mu.Unlock()
}

func (l *lineLogger) Debug(msg string, args ...any) {}
func (l *lineLogger) Info(msg string, args ...any)  { l.add("INFO", msg) }
func (l *lineLogger) Warn(msg string, args ...any)  { l.add("WARN", msg) }
func (l *lineLogger) Error(msg string, args ...any) { l.add("ERROR", msg) }

func TestRelay(t *testing.T) {
	long := strings.Repeat("a", maxLineSize+10)

	tests := []struct {
		name   string
		stream string
		input  string
		want   []string
		level  string
	}{
		{
			name:   "lines",
			stream: "stdout",
			input:  "one\n\ntwo\r\nthree",
			want:   []string{"one", "", "two", "three"},
			level:  "INFO",
		},
		{
			name:   "stderr at warn",
			stream: "stderr",
			input:  "Traceback\n",
			want:   []string{"Traceback"},
			level:  "WARN",
		},
		{
			name:   "over-long line is cut and reading continues",
			stream: "stdout",
			input:  long + "\nafter\n",
			want:   []string{long[:maxLineSize] + truncatedMarker, "after"},
			level:  "INFO",
		},
		{
			name:   "line of exactly the limit",
			stream: "stdout",
			input:  long[:maxLineSize] + "\nafter\n",
			want:   []string{long[:maxLineSize], "after"},
			level:  "INFO",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &lineLogger{}
			relay(logger, "FastAPI", tt.stream, io.NopCloser(strings.NewReader(tt.input)))

			if len(logger.lines) != len(tt.want) {
				t.Fatalf("relayed %d lines, want %d", len(logger.lines), len(tt.want))
			}
			for i, want := range tt.want {
				if logger.lines[i] != want {
					t.Errorf("line %d = %.40q (len %d), want %.40q (len %d)", i, logger.lines[i], len(logger.lines[i]), want, len(want))
				}
				if logger.level[i] != tt.level {
					t.Errorf("line %d level = %s, want %s", i, logger.level[i], tt.level)
				}
			}
		})
	}
}

func TestRelay_KeepsDrainingPipeAfterLongLine(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	writeErr := make(chan error, 1)
	go func() {
		defer w.Close()
		if _, err := io.WriteString(w, strings.Repeat("x", 2*maxLineSize)+"\n"); err != nil {
			writeErr <- err
			return
		}
		_, err := io.WriteString(w, "after\n")
		writeErr <- err
	}()

	logger := &lineLogger{}
	relay(logger, "FastAPI", "stdout", r)

	if err := <-writeErr; err != nil {
		t.Fatalf("writer error = %v, want the pipe to stay open", err)
	}
	if len(logger.lines) != 2 || logger.lines[1] != "after" {
		t.Fatalf("relayed %d lines, want the long line then \"after\"", len(logger.lines))
	}
	if !strings.HasSuffix(logger.lines[0], truncatedMarker) {
		t.Error("long line not marked as truncated")
	}
}
