// Package export renders a recording's notes into portable formats:
// subtitle files (SRT, WebVTT, TTML) for playback alignment and plain
// text for sharing.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/asticode/go-astisub"

	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
)

// Format identifies an export output format.
type Format string

const (
	FormatSRT    Format = "srt"
	FormatWebVTT Format = "vtt"
	FormatTTML   Format = "ttml"
	FormatText   Format = "txt"
)

// defaultItemSpan caps a note's display window when the next note is
// far away or missing.
const defaultItemSpan = 5 * time.Second

// ParseFormat validates a format string from the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSRT, FormatWebVTT, FormatTTML, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Write renders the recording's notes to w in the given format.
// Subtitle formats need at least one note; plain text falls back to
// the summary when notes are missing.
func Write(w io.Writer, rec memo.Recording, format Format) error {
	if format == FormatText {
		return writeText(w, rec)
	}
	if len(rec.Notes) == 0 {
		return ErrNoNotes
	}

	subs := toSubtitles(rec)
	switch format {
	case FormatSRT:
		return subs.WriteToSRT(w)
	case FormatWebVTT:
		return subs.WriteToWebVTT(w)
	case FormatTTML:
		return subs.WriteToTTML(w)
	default:
		return fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
}

// toSubtitles converts notes into subtitle items. A note ends where the
// next one starts, capped at defaultItemSpan; the last note is capped
// at the recording duration when known.
func toSubtitles(rec memo.Recording) *astisub.Subtitles {
	subs := astisub.NewSubtitles()

	for i, note := range rec.Notes {
		start := secondsToDuration(note.Timestamp)
		end := start + defaultItemSpan
		if i+1 < len(rec.Notes) {
			next := secondsToDuration(rec.Notes[i+1].Timestamp)
			if next > start && next < end {
				end = next
			}
		} else if rec.Duration > 0 {
			total := secondsToDuration(rec.Duration)
			if total > start && total < end {
				end = total
			}
		}

		item := &astisub.Item{StartAt: start, EndAt: end}
		item.Lines = append(item.Lines, astisub.Line{
			Items: []astisub.LineItem{{Text: note.Text}},
		})
		subs.Items = append(subs.Items, item)
	}

	return subs
}

// writeText renders a human-readable document: label, summary, then
// timestamped notes.
func writeText(w io.Writer, rec memo.Recording) error {
	var b strings.Builder

	if rec.Label != "" {
		b.WriteString(rec.Label)
		b.WriteString("\n\n")
	}
	if len(rec.Summary) > 0 {
		for _, point := range rec.Summary {
			fmt.Fprintf(&b, "- %s\n", point)
		}
		b.WriteString("\n")
	}
	for _, note := range rec.Notes {
		fmt.Fprintf(&b, "[%s] %s\n", formatTimestamp(note.Timestamp), note.Text)
	}

	if b.Len() == 0 {
		return ErrNoNotes
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// formatTimestamp renders seconds as mm:ss or h:mm:ss.
func formatTimestamp(seconds float64) string {
	d := secondsToDuration(seconds).Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
