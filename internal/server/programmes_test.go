package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sisu-catalog/internal/resolver"
)

// stubCatalog answers from fixed records keyed by the joined group ids.
type stubCatalog struct {
	modules map[string][]any
	courses map[string][]any
}

func (s stubCatalog) SearchProgrammes(ctx context.Context) any {
	return map[string]any{"searchResults": []any{
		map[string]any{"id": "P", "groupId": "gP", "name": "Kandiohjelma", "credits": map[string]any{"min": 180.0}},
		map[string]any{"id": "Q", "groupId": "gQ", "name": "Arkkitehtuuri", "credits": map[string]any{"min": 300.0}},
	}}
}

func (s stubCatalog) ModulesByGroupID(ctx context.Context, ids []string) any {
	if v, ok := s.modules[strings.Join(ids, ",")]; ok {
		return v
	}
	return nil
}

func (s stubCatalog) CourseUnitsByGroupID(ctx context.Context, ids []string) any {
	if v, ok := s.courses[strings.Join(ids, ",")]; ok {
		return v
	}
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	rules := func(rs ...any) map[string]any { return map[string]any{"type": "CompositeRule", "rules": rs} }
	catalog := stubCatalog{
		modules: map[string][]any{
			"gP": {map[string]any{
				"id": "P", "groupId": "gP", "name": map[string]any{"fi": "Kandiohjelma"},
				"targetCredits": map[string]any{"min": 180.0},
				"rule":          rules(map[string]any{"type": "ModuleRule", "moduleGroupId": "gM1"}),
			}},
			"gM1": {map[string]any{
				"id": "M1", "groupId": "gM1", "type": "StudyModule", "name": map[string]any{"fi": "Perusopinnot"},
				"rule": rules(
					map[string]any{"type": "CourseUnitRule", "courseUnitGroupId": "gC1"},
					map[string]any{"type": "ModuleRule", "moduleGroupId": "gM2"},
				),
			}},
			"gM2": {map[string]any{
				"id": "M2", "groupId": "gM2", "type": "StudyModule", "name": map[string]any{"fi": "Syventävät"},
				"rule": rules(map[string]any{"type": "CourseUnitRule", "courseUnitGroupId": "gC2"}),
			}},
		},
		courses: map[string][]any{
			"gC1": {map[string]any{"id": "C1", "groupId": "gC1", "name": map[string]any{"fi": "Ohjelmointi 1"}, "credits": map[string]any{"min": 5.0}}},
			"gC2": {map[string]any{"id": "C2", "groupId": "gC2", "name": map[string]any{"fi": "Algoritmit"}, "credits": map[string]any{"min": 5.0}}},
		},
	}

	engine := resolver.New(catalog, resolver.Options{})
	require.NoError(t, engine.LoadProgrammes(context.Background()))
	return New(engine, nil)
}

func get(t *testing.T, s *Server, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestGetProgrammes(t *testing.T) {
	s := newTestServer(t)

	var out []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	code := get(t, s, "/api/programmes", &out)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, out, 2)
	assert.Equal(t, "Arkkitehtuuri", out[0].Name)
	assert.Equal(t, "Kandiohjelma", out[1].Name)
}

func TestGetProgrammeTree(t *testing.T) {
	s := newTestServer(t)

	var out struct {
		ID           string `json:"id"`
		MinCredits   int    `json:"minCredits"`
		StudyModules []struct {
			ID       string `json:"id"`
			Children []struct {
				ID string `json:"id"`
			} `json:"children"`
		} `json:"studyModules"`
	}
	code := get(t, s, "/api/programmes/P", &out)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 180, out.MinCredits)
	require.Len(t, out.StudyModules, 1)
	assert.Equal(t, "M1", out.StudyModules[0].ID)
	require.Len(t, out.StudyModules[0].Children, 1)
	assert.Equal(t, "M2", out.StudyModules[0].Children[0].ID)
}

func TestGetModuleCourses(t *testing.T) {
	s := newTestServer(t)

	var direct []struct {
		ID string `json:"id"`
	}
	assert.Equal(t, http.StatusOK, get(t, s, "/api/programmes/P/modules/M1/courses", &direct))
	assert.Len(t, direct, 1)

	var nested []struct {
		Name string `json:"name"`
	}
	assert.Equal(t, http.StatusOK, get(t, s, "/api/programmes/P/modules/M1/courses?nested=true", &nested))
	require.Len(t, nested, 2)
	assert.Equal(t, "Algoritmit", nested[0].Name)

	var children []struct {
		ID string `json:"id"`
	}
	assert.Equal(t, http.StatusOK, get(t, s, "/api/programmes/P/modules/M1/children", &children))
	require.Len(t, children, 1)
	assert.Equal(t, "M2", children[0].ID)

	var modules []struct {
		ID string `json:"id"`
	}
	assert.Equal(t, http.StatusOK, get(t, s, "/api/programmes/P/modules", &modules))
	assert.Len(t, modules, 1)
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)

	testCases := []struct {
		target string
		status int
	}{
		{"/api/programmes/missing", http.StatusNotFound},
		{"/api/programmes/P/modules/missing/courses", http.StatusNotFound},
		{"/api/programmes/P/modules/M1/courses?nested=maybe", http.StatusBadRequest},
		// Q is indexed but the catalog has no record for it
		{"/api/programmes/Q", http.StatusBadGateway},
	}

	for _, tc := range testCases {
		var body map[string]string
		code := get(t, s, tc.target, &body)
		assert.Equal(t, tc.status, code, tc.target)
		assert.NotEmpty(t, body["error"], tc.target)
	}
}
