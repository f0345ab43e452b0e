package export

import "sisu-catalog/internal/domain"

// ProgrammeView is the serializable snapshot of a resolved programme. The
// JSON and XML writers and the HTTP API all render it.
type ProgrammeView struct {
	domain.Info
	StudyModules []ModuleView `json:"studyModules"`
}

type ModuleView struct {
	domain.Info
	CourseUnits []CourseView `json:"courseUnits"`
	Children    []ModuleView `json:"children"`
}

type CourseView struct {
	domain.Info
	Completed bool `json:"completed"`
}

// SummaryView is a programme without its tree.
type SummaryView struct {
	ID         domain.ID `json:"id"`
	GroupID    domain.ID `json:"groupId"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	MinCredits int       `json:"minCredits"`
}

func Summary(p *domain.DegreeProgramme) SummaryView {
	info := p.Info()
	return SummaryView{
		ID:         info.ID,
		GroupID:    info.GroupID,
		Code:       info.Code,
		Name:       info.Name,
		MinCredits: info.MinCredits,
	}
}

func NewProgrammeView(p *domain.DegreeProgramme) ProgrammeView {
	modules := p.StudyModules()
	v := ProgrammeView{Info: p.Info(), StudyModules: make([]ModuleView, 0, len(modules))}
	for _, m := range modules {
		v.StudyModules = append(v.StudyModules, NewModuleView(m))
	}
	return v
}

func NewModuleView(m *domain.StudyModule) ModuleView {
	courses := m.CourseUnits()
	children := m.Children()
	v := ModuleView{
		Info:        m.Info(),
		CourseUnits: make([]CourseView, 0, len(courses)),
		Children:    make([]ModuleView, 0, len(children)),
	}
	for _, c := range courses {
		v.CourseUnits = append(v.CourseUnits, NewCourseView(c))
	}
	for _, child := range children {
		v.Children = append(v.Children, NewModuleView(child))
	}
	return v
}

func NewCourseView(c *domain.CourseUnit) CourseView {
	return CourseView{Info: c.Info(), Completed: c.Completed()}
}
