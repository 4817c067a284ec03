package feeders

import (
	"fmt"
	"time"
)

// LegacyMigrator converts flat documents that carry question, options,
// correctAnswers and multiSelect at the top level into the nested layout.
// Options given as plain strings become {id: "opt-N", value: s}; correct
// answers given as option values are mapped to their ids. A numeric
// timeLimitSeconds becomes settings.timeLimit.
type LegacyMigrator struct{}

// Migrate implements Migrator.
func (LegacyMigrator) Migrate(doc map[string]any) error {
	if _, nested := doc["content"]; nested {
		return nil
	}
	if _, flat := doc["question"]; !flat {
		return nil
	}

	content := map[string]any{"question": doc["question"]}
	if v, ok := doc["instructions"]; ok {
		content["instructions"] = v
	}
	options, err := legacyOptions(doc["options"])
	if err != nil {
		return err
	}
	content["options"] = options

	correct, err := legacyCorrect(doc["correctAnswers"], options)
	if err != nil {
		return err
	}
	solution := map[string]any{"correct": correct}
	if v, ok := doc["hints"]; ok {
		solution["hints"] = v
	}

	settings, _ := doc["settings"].(map[string]any)
	if settings == nil {
		settings = map[string]any{}
	}
	if multi, _ := doc["multiSelect"].(bool); multi {
		settings["selectionMode"] = "multiple"
	}
	if secs, ok := doc["timeLimitSeconds"]; ok {
		n, err := toFloat(secs)
		if err != nil {
			return fmt.Errorf("timeLimitSeconds: %w", err)
		}
		settings["timeLimit"] = (time.Duration(n * float64(time.Second))).String()
	}

	for _, k := range []string{"question", "instructions", "options", "correctAnswers", "hints", "multiSelect", "timeLimitSeconds"} {
		delete(doc, k)
	}
	doc["content"] = content
	doc["solution"] = solution
	doc["settings"] = settings
	if _, ok := doc["type"]; !ok {
		doc["type"] = "selection"
	}
	return nil
}

func legacyOptions(raw any) ([]any, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("options must be a list, got %T", raw)
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, map[string]any{"id": fmt.Sprintf("opt-%d", i+1), "value": v})
		case map[string]any:
			out = append(out, v)
		default:
			return nil, fmt.Errorf("option %d: unsupported type %T", i, item)
		}
	}
	return out, nil
}

func legacyCorrect(raw any, options []any) ([]any, error) {
	var answers []any
	switch v := raw.(type) {
	case nil:
		return []any{}, nil
	case []any:
		answers = v
	default:
		answers = []any{v}
	}

	byValue := map[string]string{}
	ids := map[string]bool{}
	for _, o := range options {
		opt := o.(map[string]any)
		id, _ := opt["id"].(string)
		ids[id] = true
		if val, ok := opt["value"].(string); ok {
			byValue[val] = id
		}
	}

	out := make([]any, 0, len(answers))
	for _, a := range answers {
		s := fmt.Sprint(a)
		switch {
		case ids[s]:
			out = append(out, s)
		case byValue[s] != "":
			out = append(out, byValue[s])
		default:
			return nil, fmt.Errorf("correct answer %q matches no option", s)
		}
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
