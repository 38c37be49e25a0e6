// Marker-scanning stream filter.
//
// The model is prompted to append two control markers at the tail of its
// output: persona tags and a conversation summary. Tokens can split a marker
// at any byte boundary, so detection is incremental: the filter withholds
// only the suffix that could still grow into a marker and flushes everything
// else immediately.

package stream

import "strings"

// Marker literals emitted in-band by the model.
const (
	TagsMarker    = "#userPersonaTags="
	SummaryMarker = "#messageSummary="
)

var markers = [...]string{TagsMarker, SummaryMarker}

// Extraction is the control payload recovered from the full response once
// the stream has ended.
type Extraction struct {
	Tags    []string
	Summary string
}

// MarkerFilter scans the growing concatenation of token deltas. Text is
// released as soon as it can no longer be part of a marker; once either
// marker is confirmed, output is suppressed for the remainder of the stream
// (both markers trail all user-visible content).
type MarkerFilter struct {
	held  string
	found bool
	full  strings.Builder
}

// NewMarkerFilter creates an empty filter.
func NewMarkerFilter() *MarkerFilter {
	return &MarkerFilter{}
}

// Write consumes one token delta and returns the text now safe to show the
// client. The return value is empty once a marker has been found.
func (f *MarkerFilter) Write(delta string) string {
	f.full.WriteString(delta)
	if f.found {
		return ""
	}
	f.held += delta

	// A complete marker anywhere in the held buffer wins over prefix
	// tracking: everything from the earliest occurrence onward is control
	// payload, not client-visible text.
	if cut := earliestMarker(f.held); cut >= 0 {
		f.found = true
		out := f.held[:cut]
		f.held = ""
		return out
	}

	i := strings.LastIndex(f.held, "#")
	if i < 0 {
		out := f.held
		f.held = ""
		return out
	}

	// The suffix from the last '#' may still grow into a marker; keep it
	// back and release everything before it.
	candidate := f.held[i:]
	for _, m := range markers {
		if strings.HasPrefix(m, candidate) {
			out := f.held[:i]
			f.held = candidate
			return out
		}
	}

	out := f.held
	f.held = ""
	return out
}

// Found reports whether either marker has been confirmed.
func (f *MarkerFilter) Found() bool {
	return f.found
}

// FullText returns the entire accumulated response, markers included.
func (f *MarkerFilter) FullText() string {
	return f.full.String()
}

// Finish extracts marker payloads from the accumulated response. Each
// payload runs from the end of its marker to the start of the other marker
// if present, otherwise to the end of the response. Tag elements are
// comma-split and trimmed, never deduplicated here. An unterminated marker
// candidate held back at stream end stays absorbed in the full record; it is
// not released as visible text.
func (f *MarkerFilter) Finish() Extraction {
	var ex Extraction
	full := f.full.String()

	if _, after, ok := strings.Cut(full, TagsMarker); ok {
		section := after
		if j := strings.Index(section, SummaryMarker); j >= 0 {
			section = section[:j]
		}
		for _, tag := range strings.Split(strings.TrimSpace(section), ",") {
			ex.Tags = append(ex.Tags, strings.TrimSpace(tag))
		}
	}

	if _, after, ok := strings.Cut(full, SummaryMarker); ok {
		section := after
		if j := strings.Index(section, TagsMarker); j >= 0 {
			section = section[:j]
		}
		ex.Summary = strings.TrimSpace(section)
	}

	return ex
}

// earliestMarker returns the index of the first marker occurrence in s,
// or -1 when neither marker is present.
func earliestMarker(s string) int {
	cut := -1
	for _, m := range markers {
		if j := strings.Index(s, m); j >= 0 && (cut < 0 || j < cut) {
			cut = j
		}
	}
	return cut
}
