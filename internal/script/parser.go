package script

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/truncate"
)

// Speaker labels are introduced by a colon, half- or full-width.
func isColon(r rune) bool {
	return r == ':' || r == '：'
}

// Label tokens are recognized at the start of the text, after a line
// break, or after a sentence terminator; the last case splits units that
// share one line, e.g. "A：hello。B：world。".
func isBoundaryAnchor(r rune) bool {
	switch r {
	case '\n', '。', '！', '？', '!', '?':
		return true
	}
	return false
}

// unit is a raw (speaker, text) region found during scanning.
type unit struct {
	speaker string
	text    string
}

// Parse splits a dialogue script into ordered segments, one per
// "label: text" unit. Text before the first label is attributed to the
// narrator. Units whose text is empty after trimming are discarded and
// do not occupy an index. A script with no label-colon token anywhere
// yields an empty slice; callers treat that as a reported condition, not
// a crash.
func Parse(text string) []*Segment {
	runes := []rune(text)

	// Find label boundaries: for each colon, walk back to the nearest
	// anchor; the span between them is the label candidate. A candidate
	// containing another colon or only whitespace is not a label.
	type boundary struct {
		labelStart int // rune offset of the label's first rune
		textStart  int // rune offset just past the colon
		label      string
	}
	var boundaries []boundary
	for i, r := range runes {
		if !isColon(r) {
			continue
		}
		j := i
		for j > 0 && !isBoundaryAnchor(runes[j-1]) && !isColon(runes[j-1]) {
			j--
		}
		if j > 0 && isColon(runes[j-1]) {
			continue
		}
		label := strings.TrimSpace(string(runes[j:i]))
		if label == "" {
			continue
		}
		boundaries = append(boundaries, boundary{labelStart: j, textStart: i + 1, label: label})
	}

	if len(boundaries) == 0 {
		log.Warn("No dialogue labels found in script; expected 'Speaker：text' lines")
		return nil
	}

	var units []unit

	// Unattributed leading text becomes a narrator unit.
	if lead := strings.TrimSpace(string(runes[:boundaries[0].labelStart])); lead != "" {
		units = append(units, unit{speaker: NarratorSpeaker, text: lead})
	}

	for i, b := range boundaries {
		end := len(runes)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].labelStart
		}
		units = append(units, unit{
			speaker: b.label,
			text:    string(runes[b.textStart:end]),
		})
	}

	// Normalize and index. Empty units are dropped so indexes stay
	// contiguous in document order.
	segments := make([]*Segment, 0, len(units))
	for _, u := range units {
		body := normalizeWhitespace(u.text)
		if body == "" {
			continue
		}
		seg := &Segment{
			Index:   len(segments),
			Speaker: u.speaker,
			Text:    body,
		}
		segments = append(segments, seg)
		log.Debug("Parsed segment",
			"index", seg.Index,
			"speaker", seg.Speaker,
			"text", truncate.StringWithTail(seg.Text, 50, "…"))
	}

	log.Info("Parsed dialogue script", "segments", len(segments))
	return segments
}

// normalizeWhitespace collapses every run of whitespace to a single
// space and trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
