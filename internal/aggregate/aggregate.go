// Package aggregate flattens per-page fragments into one text stream.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adverant/nexus/landrecord-worker/internal/recognition"
)

// PageSeparatorFormat is written between pages; %d is the number of the page
// that just ended.
const PageSeparatorFormat = "\n\n--- Page %d ---\n\n"

// Text is the aggregated result of a run
type Text struct {
	Fragments []recognition.Fragment
	Flat      string
}

// Aggregate concatenates fragments page by page. Page groups are ordered by
// page index; fragments within a page keep recognition order. A separator is
// inserted between pages only when there is more than one page.
func Aggregate(pages []recognition.PageFragments) Text {
	ordered := make([]recognition.PageFragments, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PageIndex < ordered[j].PageIndex
	})

	fragments := make([]recognition.Fragment, 0)
	var flat strings.Builder

	for i, page := range ordered {
		if i > 0 {
			fmt.Fprintf(&flat, PageSeparatorFormat, ordered[i-1].PageIndex)
		}
		for j, f := range page.Fragments {
			if j > 0 {
				flat.WriteByte('\n')
			}
			flat.WriteString(f.Text)
			fragments = append(fragments, f)
		}
	}

	return Text{Fragments: fragments, Flat: flat.String()}
}
