package export

import (
	"encoding/xml"
	"fmt"
	"io"

	"sisu-catalog/internal/domain"
)

/*
<programme id="otm-..." groupId="uta-tohjelma-1705" code="KAT">
  <name>...</name>
  <minCredits>180</minCredits>
  <module id="..." groupId="...">
    <name>...</name>
    <course id="..." groupId="..." code="COMP.CS.100" completed="false">
      <name>Ohjelmointi 1</name>
      <minCredits>5</minCredits>
      <description>Kuvaus: ...</description>
    </course>
    <module>...</module>
  </module>
</programme>
*/

type xmlProgramme struct {
	XMLName xml.Name `xml:"programme"`
	xmlFields
	Modules []xmlModule `xml:"module"`
}

type xmlModule struct {
	xmlFields
	Courses  []xmlCourse `xml:"course"`
	Children []xmlModule `xml:"module"`
}

type xmlCourse struct {
	xmlFields
	Completed bool `xml:"completed,attr"`
}

type xmlFields struct {
	ID          domain.ID `xml:"id,attr"`
	GroupID     domain.ID `xml:"groupId,attr"`
	Code        string    `xml:"code,attr,omitempty"`
	Name        string    `xml:"name"`
	MinCredits  int       `xml:"minCredits,omitempty"`
	Description string    `xml:"description,omitempty"`
	Outcomes    string    `xml:"outcomes,omitempty"`
}

func toXMLFields(info domain.Info) xmlFields {
	return xmlFields{
		ID:          info.ID,
		GroupID:     info.GroupID,
		Code:        omitNull(info.Code),
		Name:        info.Name,
		MinCredits:  info.MinCredits,
		Description: omitNull(info.Description),
		Outcomes:    omitNull(info.Outcomes),
	}
}

func omitNull(s string) string {
	if s == domain.Null {
		return ""
	}
	return s
}

func toXMLModule(m ModuleView) xmlModule {
	out := xmlModule{
		xmlFields: toXMLFields(m.Info),
		Courses:   make([]xmlCourse, 0, len(m.CourseUnits)),
		Children:  make([]xmlModule, 0, len(m.Children)),
	}
	for _, c := range m.CourseUnits {
		out.Courses = append(out.Courses, xmlCourse{xmlFields: toXMLFields(c.Info), Completed: c.Completed})
	}
	for _, child := range m.Children {
		out.Children = append(out.Children, toXMLModule(child))
	}
	return out
}

// WriteProgrammeXML writes the programme tree as a single XML document.
func WriteProgrammeXML(w io.Writer, p *domain.DegreeProgramme) error {
	v := NewProgrammeView(p)
	out := xmlProgramme{
		xmlFields: toXMLFields(v.Info),
		Modules:   make([]xmlModule, 0, len(v.StudyModules)),
	}
	for _, m := range v.StudyModules {
		out.Modules = append(out.Modules, toXMLModule(m))
	}

	b, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal xml: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("export: write xml: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("export: write xml: %w", err)
	}
	return nil
}
