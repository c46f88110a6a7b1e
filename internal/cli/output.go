package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/guacplayer/guacplayer/internal/api"
)

// table is the human rendering of a command result.
type table struct {
	header []string
	rows   [][]string
	footer string
}

func (t table) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	if len(t.header) > 0 {
		fmt.Fprintln(tw, strings.Join(t.header, "\t"))
		under := make([]string, len(t.header))
		for i, h := range t.header {
			under[i] = strings.Repeat("-", len(h))
		}
		fmt.Fprintln(tw, strings.Join(under, "\t"))
	}
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if t.footer != "" {
		_, err := fmt.Fprintln(w, t.footer)
		return err
	}
	return nil
}

// render writes v in the selected format; t is used for table output.
func (c *cli) render(w io.Writer, v any, t table) error {
	switch c.opts.output {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		return writeYAML(w, v)
	default:
		return t.write(w)
	}
}

// writeYAML converts through JSON so backend records keep their field names
// and order.
func writeYAML(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles inherited from JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}

// recordTable lists every top-level field of r, one per row.
func recordTable(r api.Record) table {
	t := table{header: []string{"FIELD", "VALUE"}}
	gjson.ParseBytes(r).ForEach(func(key, value gjson.Result) bool {
		t.rows = append(t.rows, []string{key.String(), cell(value)})
		return true
	})
	return t
}

func cell(v gjson.Result) string {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return "-"
	case v.IsArray():
		items := v.Array()
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, item.String())
		}
		return strings.Join(parts, ", ")
	case v.String() == "":
		return "-"
	default:
		return v.String()
	}
}

// dash renders empty values as "-" so tabwriter columns stay aligned.
func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// when renders a backend timestamp with its relative age.
func when(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-"
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t.Format("2006-01-02 15:04") + " (" + humanize.Time(t) + ")"
		}
	}
	return raw
}

func size(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

func pageFooter(p api.Pagination) string {
	if p.TotalPages == 0 {
		return fmt.Sprintf("%s total", humanize.Comma(int64(p.Total)))
	}
	return fmt.Sprintf("page %d of %d, %s total", p.Page, p.TotalPages, humanize.Comma(int64(p.Total)))
}
