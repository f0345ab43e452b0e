package domain

import "sync"

// DegreeProgramme is the root of a curriculum tree. It owns the top-level
// study modules, keyed by module id.
type DegreeProgramme struct {
	mu           sync.RWMutex
	info         Info
	studyModules map[ID]*StudyModule
}

func NewDegreeProgramme(info Info) *DegreeProgramme {
	return &DegreeProgramme{
		info:         info,
		studyModules: map[ID]*StudyModule{},
	}
}

func (p *DegreeProgramme) Key() ID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info.ID
}

func (p *DegreeProgramme) Info() Info {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info
}

// Refresh replaces the descriptive fields with the ones in info.
// ID and GroupID are kept: they are the programme's index key.
func (p *DegreeProgramme) Refresh(info Info) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info.ID = p.info.ID
	info.GroupID = p.info.GroupID
	p.info = info
}

// AddStudyModule stores m under its id, replacing any module with that id.
func (p *DegreeProgramme) AddStudyModule(m *StudyModule) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.studyModules[m.Key()] = m
}

// StudyModules lists the top-level modules sorted by name.
func (p *DegreeProgramme) StudyModules() []*StudyModule {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return sortedValues(p.studyModules)
}

func (p *DegreeProgramme) StudyModule(id ID) (*StudyModule, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.studyModules[id]
	return m, ok
}

// AllCourseUnits flattens every course reachable from the programme,
// deduplicated by id and sorted by name.
func (p *DegreeProgramme) AllCourseUnits() []*CourseUnit {
	seen := map[ID]*CourseUnit{}
	for _, m := range p.StudyModules() {
		m.collectCourseUnits(seen)
	}
	return sortedValues(seen)
}

// FindStudyModule searches the programme's tree depth-first for a module id.
func FindStudyModule(p *DegreeProgramme, id ID) (*StudyModule, bool) {
	for _, m := range p.StudyModules() {
		if found, ok := m.find(id); ok {
			return found, true
		}
	}
	return nil, false
}
