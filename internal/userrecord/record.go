// Package userrecord is the JSON shape of a student's saved progress: the
// chosen degree programme and the courses picked from it.
package userrecord

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"sisu-catalog/internal/domain"
)

type Record struct {
	Name          string        `json:"name" validate:"required"`
	StudentNumber string        `json:"studentNumber" validate:"required"`
	DegreeModule  *domain.ID    `json:"degreeModule"`
	Courses       []CourseEntry `json:"courses" validate:"dive"`
}

// CourseEntry is a course unit flattened for storage.
type CourseEntry struct {
	CourseName  string    `json:"courseName" validate:"required"`
	ID          domain.ID `json:"id" validate:"required"`
	GroupID     domain.ID `json:"groupId" validate:"required"`
	MinCredits  int       `json:"minCredits" validate:"gte=0"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Outcomes    string    `json:"outcomes"`
	Completed   bool      `json:"completed"`
}

var validate = validator.New()

// Decode reads one record and checks its required fields.
func Decode(r io.Reader) (*Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("userrecord: decode: %w", err)
	}
	if err := validate.Struct(rec); err != nil {
		return nil, fmt.Errorf("userrecord: invalid record: %w", err)
	}
	return &rec, nil
}

// Encode writes the record as indented JSON. A record without a programme
// is written with "degreeModule": null and an empty course list as [].
func (r *Record) Encode(w io.Writer) error {
	out := *r
	if out.Courses == nil {
		out.Courses = []CourseEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("userrecord: encode: %w", err)
	}
	return nil
}

func EntryFromCourseUnit(c *domain.CourseUnit) CourseEntry {
	info := c.Info()
	return CourseEntry{
		CourseName:  info.Name,
		ID:          info.ID,
		GroupID:     info.GroupID,
		MinCredits:  info.MinCredits,
		Code:        info.Code,
		Description: info.Description,
		Outcomes:    info.Outcomes,
		Completed:   c.Completed(),
	}
}

// CourseUnit rebuilds the domain course from a stored entry.
func (e CourseEntry) CourseUnit() *domain.CourseUnit {
	c := domain.NewCourseUnit(domain.Info{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Code:        e.Code,
		Name:        e.CourseName,
		MinCredits:  e.MinCredits,
		Description: e.Description,
		Outcomes:    e.Outcomes,
	})
	c.SetCompleted(e.Completed)
	return c
}

// SelectProgramme records the chosen programme. Courses picked for another
// programme are kept.
func (r *Record) SelectProgramme(p *domain.DegreeProgramme) {
	if p == nil {
		r.DegreeModule = nil
		return
	}
	id := p.Key()
	r.DegreeModule = &id
}

// AddCourse appends e, or replaces the entry that has the same id.
func (r *Record) AddCourse(e CourseEntry) {
	for i := range r.Courses {
		if r.Courses[i].ID == e.ID {
			r.Courses[i] = e
			return
		}
	}
	r.Courses = append(r.Courses, e)
}

// ApplyCompletion copies the stored completion marks onto courses with a
// matching id. It returns how many courses were marked.
func (r *Record) ApplyCompletion(courses []*domain.CourseUnit) int {
	done := make(map[domain.ID]bool, len(r.Courses))
	for _, e := range r.Courses {
		if e.Completed {
			done[e.ID] = true
		}
	}
	n := 0
	for _, c := range courses {
		if done[c.Key()] {
			c.SetCompleted(true)
			n++
		}
	}
	return n
}

// CompletedCredits sums the minimum credits of completed entries.
func (r *Record) CompletedCredits() int {
	total := 0
	for _, e := range r.Courses {
		if e.Completed {
			total += e.MinCredits
		}
	}
	return total
}
