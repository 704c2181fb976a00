package engine

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rcliao/dynamic-memory/internal/model"
)

var (
	numberRe = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(%?)`)
	ratioRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:/|out\s+of)\s*(\d+(?:\.\d+)?)`)
	scaleRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:-|to)\s*(\d+(?:\.\d+)?)`)
)

// extractJSON returns the first balanced JSON object in text, ignoring code
// fences and prose around it. It returns "" when there is none.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escape {
			escape = false
			continue
		}
		if c == '\\' {
			escape = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

type classification struct {
	Type       string `json:"type"`
	MemoryType string `json:"memory_type"`
	Confidence any    `json:"confidence"`
}

// parseClassification recovers type and confidence. Both fields are
// required and the type must be a classifier label.
func parseClassification(text string) (model.Type, float64, bool) {
	raw := extractJSON(text)
	if raw == "" {
		return model.TypeUnknown, 0, false
	}

	var c classification
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return model.TypeUnknown, 0, false
	}

	label := c.Type
	if label == "" {
		label = c.MemoryType
	}
	typ, ok := model.ParseType(label)
	if !ok {
		return model.TypeUnknown, 0, false
	}
	conf, ok := toFloat(c.Confidence)
	if !ok {
		return model.TypeUnknown, 0, false
	}
	return typ, model.Clamp01(conf), true
}

// parseScore reads a [0,1] score from a JSON object with a
// score/importance/relevance field, a ratio ("7/10", "7 out of 10"), or prose.
// In prose a stated scale ("0-10", "0 to 1") is removed and used to normalize
// the remaining numbers, percentages divide by 100, and the last number
// inside [0,1] wins over earlier ones. Out-of-range values clamp.
func parseScore(text string) (float64, bool) {
	if raw := extractJSON(text); raw != "" {
		var obj map[string]any
		if json.Unmarshal([]byte(raw), &obj) == nil {
			for _, k := range []string{"score", "importance", "relevance"} {
				if v, ok := toFloat(obj[k]); ok {
					return model.Clamp01(v), true
				}
			}
		}
	}

	if all := ratioRe.FindAllStringSubmatch(text, -1); len(all) > 0 {
		m := all[len(all)-1]
		n, err1 := strconv.ParseFloat(m[1], 64)
		d, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil && d > 0 {
			return model.Clamp01(n / d), true
		}
	}

	scale := 1.0
	if all := scaleRe.FindAllStringSubmatch(text, -1); len(all) > 0 {
		if hi, err := strconv.ParseFloat(all[len(all)-1][2], 64); err == nil && hi > 0 {
			scale = hi
		}
		rest := scaleRe.ReplaceAllString(text, " ")
		if numberRe.MatchString(rest) {
			text = rest
		} else {
			scale = 1
		}
	}

	var vals []float64
	for _, m := range numberRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.TrimSuffix(m[0], "%"), 64)
		if err != nil {
			continue
		}
		if m[1] == "%" {
			v /= 100
		} else {
			v /= scale
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return 0, false
	}
	for i := len(vals) - 1; i >= 0; i-- {
		if vals[i] >= 0 && vals[i] <= 1 {
			return vals[i], true
		}
	}
	return model.Clamp01(vals[len(vals)-1]), true
}

// parseBatchScores reads {"<id>": score, ...}, optionally nested under
// "scores". Ids that are absent or unparsable are left out.
func parseBatchScores(text string) map[int64]float64 {
	out := map[int64]float64{}
	raw := extractJSON(text)
	if raw == "" {
		return out
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return out
	}
	if nested, ok := obj["scores"].(map[string]any); ok {
		obj = nested
	}
	for k, v := range obj {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			continue
		}
		if f, ok := toFloat(v); ok {
			out[id] = model.Clamp01(f)
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
