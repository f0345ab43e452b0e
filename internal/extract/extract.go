// Package extract reads domain.Info values out of raw catalog records.
//
// Records are the decoded JSON objects returned by the catalog service, so
// every value is one of map[string]any, []any, string, float64, bool or nil.
package extract

import (
	"errors"
	"fmt"

	"sisu-catalog/internal/domain"
	"sisu-catalog/internal/textnorm"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrWrongShape   = errors.New("wrong shape")
)

const (
	descriptionLabel = "Kuvaus: "
	outcomesLabel    = "Oppimistavoitteet: "
)

// Info extracts the full field set of a record read as kind.
func Info(record map[string]any, kind domain.Kind) (domain.Info, error) {
	info, err := Core(record, kind)
	if err != nil {
		return domain.Info{}, err
	}
	info.Description, info.Outcomes = Details(record, kind)
	return info, nil
}

// Core extracts identity, name and credits.
func Core(record map[string]any, kind domain.Kind) (domain.Info, error) {
	if record == nil {
		return domain.Info{}, fmt.Errorf("%s record: %w", kind, ErrWrongShape)
	}

	id, err := requiredString(record, "id")
	if err != nil {
		return domain.Info{}, err
	}
	groupID, err := requiredString(record, "groupId")
	if err != nil {
		return domain.Info{}, err
	}

	name, err := extractName(record, kind)
	if err != nil {
		return domain.Info{}, err
	}

	credits, err := extractCredits(record, kind)
	if err != nil {
		return domain.Info{}, err
	}

	code := domain.Null
	if s, ok := record["code"].(string); ok {
		code = s
	}

	return domain.Info{
		ID:         domain.ID(id),
		GroupID:    domain.ID(groupID),
		Code:       code,
		Name:       name,
		MinCredits: credits,
	}, nil
}

// Details returns the labelled, normalized description and outcomes.
// Either is domain.Null when the record has no usable text for it.
func Details(record map[string]any, kind domain.Kind) (description, outcomes string) {
	var descField, outField string
	switch kind {
	case domain.KindDegreeProgramme:
		descField, outField = "contentDescription", "learningOutcomes"
	case domain.KindStudyModule:
		outField = "outcomes"
		// Study-module-shaped records and the grouping modules returned by
		// the same lookup name their description field differently.
		if getString(record, "type") == "StudyModule" {
			descField = "contentDescription"
		} else {
			descField = "description"
		}
	case domain.KindCourseUnit:
		descField, outField = "content", "outcomes"
	}

	return labelled(record, descField, descriptionLabel), labelled(record, outField, outcomesLabel)
}

func labelled(record map[string]any, field, label string) string {
	text, ok := localized(record[field])
	if !ok {
		return domain.Null
	}
	return textnorm.Normalize(label + text)
}

func extractName(record map[string]any, kind domain.Kind) (string, error) {
	raw, present := record["name"]
	if !present || raw == nil {
		return "", fmt.Errorf("%s name: %w", kind, ErrMissingField)
	}

	if kind == domain.KindDegreeProgramme {
		if s, ok := raw.(string); ok {
			return s, nil
		}
	}
	if _, ok := raw.(map[string]any); !ok {
		return "", fmt.Errorf("%s name: %w", kind, ErrWrongShape)
	}
	s, ok := localized(raw)
	if !ok {
		return "", fmt.Errorf("%s name has no fi or en entry: %w", kind, ErrMissingField)
	}
	return s, nil
}

func extractCredits(record map[string]any, kind domain.Kind) (int, error) {
	switch kind {
	case domain.KindDegreeProgramme:
		if n, ok := minOf(record, "credits"); ok {
			return n, nil
		}
		n, _ := minOf(record, "targetCredits")
		return n, nil
	case domain.KindStudyModule:
		n, _ := minOf(record, "targetCredits")
		return n, nil
	default:
		n, ok := minOf(record, "credits")
		if !ok {
			return 0, fmt.Errorf("%s credits.min: %w", kind, ErrMissingField)
		}
		return n, nil
	}
}

// minOf reads record[field].min as a non-negative int.
func minOf(record map[string]any, field string) (int, bool) {
	obj, ok := record[field].(map[string]any)
	if !ok {
		return 0, false
	}
	f, ok := obj["min"].(float64)
	if !ok {
		return 0, false
	}
	if f < 0 {
		return 0, true
	}
	return int(f), true
}

// localized picks the Finnish text of a locale map, else the English one.
func localized(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	if s, ok := m["fi"].(string); ok {
		return s, true
	}
	if s, ok := m["en"].(string); ok {
		return s, true
	}
	return "", false
}

func requiredString(record map[string]any, key string) (string, error) {
	s := getString(record, key)
	if s == "" {
		return "", fmt.Errorf("%s: %w", key, ErrMissingField)
	}
	return s, nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
