package domain

import "sync/atomic"

// CourseUnit is a leaf of the curriculum tree.
type CourseUnit struct {
	info      Info
	completed atomic.Bool
}

func NewCourseUnit(info Info) *CourseUnit {
	return &CourseUnit{info: info}
}

func (c *CourseUnit) Key() ID    { return c.info.ID }
func (c *CourseUnit) Info() Info { return c.info }

// Completed is the user's progress mark. Resolution never touches it.
func (c *CourseUnit) Completed() bool     { return c.completed.Load() }
func (c *CourseUnit) SetCompleted(v bool) { c.completed.Store(v) }
