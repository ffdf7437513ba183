package openai

import (
	"encoding/json"
	"errors"
	"strings"

	"tennis-transform/internal/domain"
)

// analysisPayload mirrors domain.PersonAnalysis but tolerates models that
// answer with numbers or snake_case keys.
type analysisPayload struct {
	Age                      flexString `json:"age"`
	Gender                   flexString `json:"gender"`
	SkinTone                 flexString `json:"skinTone"`
	SkinToneSnake            flexString `json:"skin_tone"`
	HairColor                flexString `json:"hairColor"`
	HairColorSnake           flexString `json:"hair_color"`
	HairStyle                flexString `json:"hairStyle"`
	HairStyleSnake           flexString `json:"hair_style"`
	FacialFeatures           flexString `json:"facialFeatures"`
	FacialFeaturesSnake      flexString `json:"facial_features"`
	BodyType                 flexString `json:"bodyType"`
	BodyTypeSnake            flexString `json:"body_type"`
	Height                   flexString `json:"height"`
	DistinctiveFeatures      flexString `json:"distinctiveFeatures"`
	DistinctiveFeaturesSnake flexString `json:"distinctive_features"`
}

func (p analysisPayload) toDomain() domain.PersonAnalysis {
	return domain.PersonAnalysis{
		Age:                 string(p.Age),
		Gender:              string(p.Gender),
		SkinTone:            coalesce(string(p.SkinTone), string(p.SkinToneSnake)),
		HairColor:           coalesce(string(p.HairColor), string(p.HairColorSnake)),
		HairStyle:           coalesce(string(p.HairStyle), string(p.HairStyleSnake)),
		FacialFeatures:      coalesce(string(p.FacialFeatures), string(p.FacialFeaturesSnake)),
		BodyType:            coalesce(string(p.BodyType), string(p.BodyTypeSnake)),
		Height:              string(p.Height),
		DistinctiveFeatures: coalesce(string(p.DistinctiveFeatures), string(p.DistinctiveFeaturesSnake)),
	}
}

// flexString accepts any JSON scalar (or list of scalars) and keeps its text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var list []any
	if err := json.Unmarshal(b, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			if text := scalarText(v); text != "" {
				parts = append(parts, text)
			}
		}
		*f = flexString(strings.Join(parts, ", "))
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexString(scalarText(v))
	return nil
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		raw, _ := json.Marshal(t)
		return string(raw)
	}
}

func parseAnalysis(raw string) (domain.PersonAnalysis, error) {
	payload, err := parseModelPayload[analysisPayload](raw)
	if err != nil {
		return domain.PersonAnalysis{}, err
	}
	return payload.toDomain(), nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	if !strings.HasPrefix(cleaned, "{") {
		return zero, errors.New("payload is not a json object")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
