package supervisor

import (
	"bufio"
	"errors"
	"io"
	"os"

	"hsdesk/internal/desk"
)

const maxLineSize = 1024 * 1024

// truncatedMarker ends a relayed line that was cut at maxLineSize.
const truncatedMarker = " [truncated]"

// relay forwards r line by line to the logger until EOF, then closes it.
// stderr lines are logged at warn level. Lines longer than maxLineSize are
// cut and the rest of the line is read and dropped, so the pipe never stops
// draining while the child is alive.
func relay(logger desk.Logger, name, stream string, r io.ReadCloser) {
	defer r.Close()

	log := logger.Info
	if stream == "stderr" {
		log = logger.Warn
	}

	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	truncated := false
	for {
		chunk, more, err := br.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
				logger.Debug("output relay ended", "process", name, "stream", stream, "error", err)
			}
			return
		}

		if !truncated {
			if room := maxLineSize - len(line); len(chunk) > room {
				chunk, truncated = chunk[:room], true
			}
			line = append(line, chunk...)
		}
		if more {
			continue
		}

		msg := string(line)
		if truncated {
			msg += truncatedMarker
		}
		log(msg, "process", name, "stream", stream)
		line, truncated = line[:0], false
	}
}
