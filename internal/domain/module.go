package domain

import (
	"fmt"
	"sort"
)

// Null is the placeholder the catalog model uses for a missing code or text.
const Null = "NULL"

// ID is a catalog identifier. Entities are equal when their IDs are.
type ID string

// Kind tags which variant a raw catalog record is being read as.
type Kind int

const (
	KindDegreeProgramme Kind = iota
	KindStudyModule
	KindCourseUnit
)

func (k Kind) String() string {
	switch k {
	case KindDegreeProgramme:
		return "DegreeProgramme"
	case KindStudyModule:
		return "StudyModule"
	case KindCourseUnit:
		return "CourseUnit"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Info holds the fields shared by programmes, study modules and course units.
type Info struct {
	ID          ID     `json:"id"`
	GroupID     ID     `json:"groupId"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	MinCredits  int    `json:"minCredits"`
	Description string `json:"description"`
	Outcomes    string `json:"outcomes"`
}

// String renders "CODE name (N op)", leaving out the code when unknown and
// the credits when zero.
func (i Info) String() string {
	s := i.Name
	if i.Code != "" && i.Code != Null {
		s = i.Code + " " + s
	}
	if i.MinCredits != 0 {
		s = fmt.Sprintf("%s (%d op)", s, i.MinCredits)
	}
	return s
}

// Tooltip joins description and outcomes with a blank line, using whichever
// exists. Null when neither does.
func (i Info) Tooltip() string {
	hasDesc := i.Description != "" && i.Description != Null
	hasOut := i.Outcomes != "" && i.Outcomes != Null
	switch {
	case hasDesc && hasOut:
		return i.Description + "\n\n" + i.Outcomes
	case hasDesc:
		return i.Description
	case hasOut:
		return i.Outcomes
	default:
		return Null
	}
}

// Entity is anything in the catalog hierarchy.
type Entity interface {
	Key() ID
	Info() Info
}

// SameEntity reports whether a and b denote the same catalog entity.
func SameEntity(a, b Entity) bool {
	return a.Key() == b.Key()
}

// SortByName orders entities lexicographically by name. The sort is stable.
func SortByName[T Entity](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Info().Name < items[j].Info().Name
	})
}

func sortedValues[T Entity](m map[ID]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	SortByName(out)
	return out
}
