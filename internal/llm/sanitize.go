package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// ErrParseFailed is returned when a model payload is not a JSON object,
// either directly or inside a markdown code fence.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Sanitize normalizes a decoded model payload in place and returns it. The
// rules are exhaustive; anything else passes through unchanged:
//
//  1. null top-level fields are removed so defaults apply.
//  2. A list-shaped overall_dimensions becomes a mapping keyed by each
//     record's feature, lower-cased with spaces replaced by underscores.
//     Records without a feature are dropped.
//  3. A critical dimension without confidence gets model.DefaultConfidence.
//  4. Non-string title_block_info values are stringified; nulls are dropped.
func Sanitize(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}

	for k, v := range payload {
		if v == nil {
			delete(payload, k)
		}
	}

	if list, ok := payload["overall_dimensions"].([]any); ok {
		dims := make(map[string]any, len(list))
		for _, entry := range list {
			rec, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			feature, ok := rec["feature"].(string)
			if !ok || feature == "" {
				continue
			}
			dims[strings.ReplaceAll(strings.ToLower(feature), " ", "_")] = rec
		}
		payload["overall_dimensions"] = dims
	}

	if list, ok := payload["critical_dimensions"].([]any); ok {
		for _, entry := range list {
			rec, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if c, present := rec["confidence"]; !present || c == nil {
				rec["confidence"] = model.DefaultConfidence
			}
		}
	}

	if info, ok := payload["title_block_info"].(map[string]any); ok {
		for k, v := range info {
			switch val := v.(type) {
			case nil:
				delete(info, k)
			case string:
			case float64:
				info[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				info[k] = strconv.FormatBool(val)
			default:
				data, err := json.Marshal(val)
				if err != nil {
					delete(info, k)
					continue
				}
				info[k] = string(data)
			}
		}
	}

	return payload
}

// parseObject decodes content as a JSON object, falling back to the first
// fenced code block when the model wrapped its answer in markdown.
func parseObject(content []byte) (map[string]any, error) {
	text := strings.TrimSpace(string(content))

	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err == nil && payload != nil {
		return payload, nil
	}

	matches := jsonBlockRegex.FindStringSubmatch(text)
	if len(matches) >= 2 {
		cleaned := strings.TrimSpace(matches[1])
		if err := json.Unmarshal([]byte(cleaned), &payload); err == nil && payload != nil {
			return payload, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrParseFailed, text)
}

// DecodeSpecification parses a raw model payload, sanitizes it, and decodes
// it into a PartSpecification with every collection allocated.
func DecodeSpecification(raw []byte) (*model.PartSpecification, error) {
	payload, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(Sanitize(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode payload: %w", err)
	}

	spec := &model.PartSpecification{}
	if err := json.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("payload does not match specification schema: %w", err)
	}
	spec.FillDefaults()
	return spec, nil
}
