package domain

import "sync"

// StudyModule groups course units and nested study modules.
// Info is fixed at construction; the containers are safe for concurrent use.
type StudyModule struct {
	info Info

	mu          sync.RWMutex
	courseUnits map[ID]*CourseUnit
	children    map[ID]*StudyModule
}

func NewStudyModule(info Info) *StudyModule {
	return &StudyModule{
		info:        info,
		courseUnits: map[ID]*CourseUnit{},
		children:    map[ID]*StudyModule{},
	}
}

func (m *StudyModule) Key() ID    { return m.info.ID }
func (m *StudyModule) Info() Info { return m.info }

func (m *StudyModule) AddCourseUnit(c *CourseUnit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courseUnits[c.Key()] = c
}

func (m *StudyModule) AddChild(child *StudyModule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.children[child.Key()] = child
}

// CourseUnits lists the module's direct courses sorted by name.
func (m *StudyModule) CourseUnits() []*CourseUnit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.courseUnits)
}

// Children lists the direct child modules sorted by name.
func (m *StudyModule) Children() []*StudyModule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.children)
}

func (m *StudyModule) CourseUnit(id ID) (*CourseUnit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courseUnits[id]
	return c, ok
}

func (m *StudyModule) Child(id ID) (*StudyModule, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.children[id]
	return c, ok
}

// AllCourseUnits returns the courses of this module and all of its
// descendants, deduplicated by id and sorted by name.
func (m *StudyModule) AllCourseUnits() []*CourseUnit {
	seen := map[ID]*CourseUnit{}
	m.collectCourseUnits(seen)
	return sortedValues(seen)
}

func (m *StudyModule) collectCourseUnits(into map[ID]*CourseUnit) {
	for _, c := range m.CourseUnits() {
		into[c.Key()] = c
	}
	for _, child := range m.Children() {
		child.collectCourseUnits(into)
	}
}

func (m *StudyModule) find(id ID) (*StudyModule, bool) {
	if m.Key() == id {
		return m, true
	}
	for _, child := range m.Children() {
		if found, ok := child.find(id); ok {
			return found, true
		}
	}
	return nil, false
}
