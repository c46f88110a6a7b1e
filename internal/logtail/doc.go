// Package logtail reads the tail of GuacPlayer's own log file.
//
// The client logs zerolog JSON lines to a rotated file (see package logger).
// Read extracts the last N lines that pass a Filter without loading the whole
// file: matching lines go into a ring buffer of size N, so memory stays
// O(N) however large the file is. Write renders the lines in zerolog's
// console format for `guacplayer logs`.
//
// A missing log file is not an error; Read returns no lines.
//
//	lines, err := logtail.Read(cfg.LogFile, 200, logtail.Filter{MinLevel: zerolog.WarnLevel})
//	if err != nil {
//		return err
//	}
//	return logtail.Write(os.Stdout, lines, true)
package logtail
