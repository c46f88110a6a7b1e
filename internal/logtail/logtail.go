package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Filter selects log lines. The zero value keeps every line.
type Filter struct {
	MinLevel  zerolog.Level
	Component string
}

// Match reports whether line passes the filter. Lines that are not JSON only
// pass when no level or component is asked for.
func (f Filter) Match(line string) bool {
	if !gjson.Valid(line) {
		return f.MinLevel <= zerolog.DebugLevel && f.Component == ""
	}
	fields := gjson.GetMany(line, zerolog.LevelFieldName, "component")
	if f.Component != "" && !strings.EqualFold(fields[1].String(), f.Component) {
		return false
	}
	level, err := zerolog.ParseLevel(fields[0].String())
	if err != nil {
		level = zerolog.NoLevel
	}
	if level == zerolog.NoLevel {
		return f.MinLevel <= zerolog.DebugLevel
	}
	return level >= f.MinLevel
}

// Read returns at most maxLines matching lines from the end of the file at
// path, oldest first. maxLines <= 0 returns every matching line. A missing
// file yields no lines and no error.
func Read(path string, maxLines int, filter Filter) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			if line := scanner.Text(); filter.Match(line) {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		line := scanner.Text()
		if !filter.Match(line) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Write renders JSON log lines in zerolog's console format. Other lines are
// written unchanged.
func Write(w io.Writer, lines []string, color bool) error {
	console := zerolog.ConsoleWriter{Out: w, NoColor: !color, TimeFormat: time.DateTime}
	for _, line := range lines {
		if gjson.Valid(line) {
			if _, err := console.Write([]byte(line)); err != nil {
				return err
			}
			continue
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
