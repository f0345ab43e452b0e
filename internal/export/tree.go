package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sisu-catalog/internal/domain"
)

// WriteTree prints the programme as an indented outline, one entity per
// line in its "CODE name (N op)" form. Completed courses are marked [x].
func WriteTree(w io.Writer, p *domain.DegreeProgramme) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, p.Info().String())

	var walk func(m *domain.StudyModule, depth int)
	walk = func(m *domain.StudyModule, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(bw, "%s+ %s\n", indent, m.Info().String())
		for _, c := range m.CourseUnits() {
			mark := "[ ]"
			if c.Completed() {
				mark = "[x]"
			}
			fmt.Fprintf(bw, "%s  %s %s\n", indent, mark, c.Info().String())
		}
		for _, child := range m.Children() {
			walk(child, depth+1)
		}
	}
	for _, m := range p.StudyModules() {
		walk(m, 1)
	}
	return bw.Flush()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
