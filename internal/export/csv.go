package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"sisu-catalog/internal/domain"
)

// Keep header order EXACT, spreadsheet imports depend on it.
var courseHeader = []string{
	"PROGRAMME_ID",
	"MODULE_PATH",
	"COURSE_ID",
	"GROUP_ID",
	"CODE",
	"NAME",
	"MIN_CREDITS",
	"COMPLETED",
	"DESCRIPTION",
	"OUTCOMES",
}

// modulePathSep joins module names in MODULE_PATH.
const modulePathSep = " > "

// WriteCourseCSV writes one row per course unit per module it appears in,
// walking the programme tree depth first in name order.
func WriteCourseCSV(w io.Writer, p *domain.DegreeProgramme) error {
	cw := csv.NewWriter(w)
	// match typical templates
	cw.UseCRLF = true

	if err := cw.Write(courseHeader); err != nil {
		return err
	}

	pid := string(p.Key())
	var walk func(m *domain.StudyModule, path []string) error
	walk = func(m *domain.StudyModule, path []string) error {
		path = append(path, cleanCell(m.Info().Name))
		joined := strings.Join(path, modulePathSep)
		for _, c := range m.CourseUnits() {
			if err := cw.Write(toCourseRow(pid, joined, c)); err != nil {
				return err
			}
		}
		for _, child := range m.Children() {
			if err := walk(child, path); err != nil {
				return err
			}
		}
		return nil
	}

	for _, m := range p.StudyModules() {
		if err := walk(m, nil); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func toCourseRow(programmeID, modulePath string, c *domain.CourseUnit) []string {
	info := c.Info()
	return []string{
		programmeID,                       // PROGRAMME_ID
		modulePath,                        // MODULE_PATH
		string(info.ID),                   // COURSE_ID
		string(info.GroupID),              // GROUP_ID
		blankNull(info.Code),              // CODE
		cleanCell(info.Name),              // NAME
		strconv.Itoa(info.MinCredits),     // MIN_CREDITS
		strconv.FormatBool(c.Completed()), // COMPLETED
		blankNull(info.Description),       // DESCRIPTION
		blankNull(info.Outcomes),          // OUTCOMES
	}
}

func blankNull(s string) string {
	if s == domain.Null {
		return ""
	}
	return cleanCell(s)
}

// cleanCell keeps every record on one line.
func cleanCell(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
