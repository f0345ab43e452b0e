package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"sisu-catalog/internal/domain"
	"sisu-catalog/internal/export"
	"sisu-catalog/internal/resolver"
)

func SetupProgrammeRoutes(e *echo.Echo, engine *resolver.Engine) {
	e.GET("/api/programmes", GetProgrammes(engine))
	e.GET("/api/programmes/:id", GetProgramme(engine))
	e.GET("/api/programmes/:id/modules", GetModules(engine))
	e.GET("/api/programmes/:id/modules/:moduleId/courses", GetModuleCourses(engine))
	e.GET("/api/programmes/:id/modules/:moduleId/children", GetModuleChildren(engine))
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// resolvedProgramme looks up :id and makes sure its tree is built. A nil
// programme means the error response was already written; err is the
// result of writing it.
func resolvedProgramme(c echo.Context, engine *resolver.Engine) (*domain.DegreeProgramme, error) {
	p, ok := engine.Programme(domain.ID(c.Param("id")))
	if !ok {
		return nil, errorJSON(c, http.StatusNotFound, "programme not found")
	}
	if err := engine.EnsureResolved(c.Request().Context(), p); err != nil {
		return nil, errorJSON(c, http.StatusBadGateway, "failed to resolve programme")
	}
	return p, nil
}

func resolvedModule(c echo.Context, engine *resolver.Engine) (*domain.StudyModule, error) {
	p, err := resolvedProgramme(c, engine)
	if p == nil {
		return nil, err
	}
	m, ok := domain.FindStudyModule(p, domain.ID(c.Param("moduleId")))
	if !ok {
		return nil, errorJSON(c, http.StatusNotFound, "study module not found")
	}
	return m, nil
}

// GetProgrammes lists every programme, sorted by name, without its tree.
func GetProgrammes(engine *resolver.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		programmes := engine.Programmes()
		out := make([]export.SummaryView, 0, len(programmes))
		for _, p := range programmes {
			out = append(out, export.Summary(p))
		}
		return c.JSON(http.StatusOK, out)
	}
}

// GetProgramme returns a programme with its full module tree, resolving it
// on first access.
func GetProgramme(engine *resolver.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := resolvedProgramme(c, engine)
		if p == nil {
			return err
		}
		return c.JSON(http.StatusOK, export.NewProgrammeView(p))
	}
}

func GetModules(engine *resolver.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := resolvedProgramme(c, engine)
		if p == nil {
			return err
		}
		modules := p.StudyModules()
		out := make([]domain.Info, 0, len(modules))
		for _, m := range modules {
			out = append(out, m.Info())
		}
		return c.JSON(http.StatusOK, out)
	}
}

// GetModuleCourses returns the module's direct courses, or with
// ?nested=true every course below it.
func GetModuleCourses(engine *resolver.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		nested := false
		if raw := c.QueryParam("nested"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return errorJSON(c, http.StatusBadRequest, "invalid nested flag")
			}
			nested = v
		}

		m, err := resolvedModule(c, engine)
		if m == nil {
			return err
		}

		courses := m.CourseUnits()
		if nested {
			courses = m.AllCourseUnits()
		}
		out := make([]export.CourseView, 0, len(courses))
		for _, cu := range courses {
			out = append(out, export.NewCourseView(cu))
		}
		return c.JSON(http.StatusOK, out)
	}
}

func GetModuleChildren(engine *resolver.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		m, err := resolvedModule(c, engine)
		if m == nil {
			return err
		}
		children := m.Children()
		out := make([]domain.Info, 0, len(children))
		for _, child := range children {
			out = append(out, child.Info())
		}
		return c.JSON(http.StatusOK, out)
	}
}
