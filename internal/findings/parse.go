package findings

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"faultbench/internal/gtruth"
	"faultbench/internal/logging"
)

// jsonBlock finds the outermost JSON array or object inside prose.
var jsonBlock = regexp.MustCompile(`(?s)(\[.*\]|\{.*\})`)

// ParseFile reads one raw LLM result file and normalizes its contents.
// A file that cannot be salvaged yields an empty list and a warning — one
// bad run must never abort a batch.
func ParseFile(path string) []Finding {
	logger := logging.New("findings")
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("cannot read result file", "path", path, "error", err)
		return nil
	}
	list, err := Parse(data)
	if err != nil {
		logger.Warn("cannot parse result file", "path", path, "error", err)
		return nil
	}
	return list
}

// Parse normalizes raw LLM output into findings. It accepts, in order of
// preference:
//   - a plain JSON array of report objects
//   - a {"bugs": [...]} wrapper (with or without extra metadata keys)
//   - a single report object (promoted to a 1-element list)
//   - JSON embedded in markdown fences or surrounding prose
//   - individually parseable objects recovered from a truncated array
//
// Reports missing a filename or parseable line numbers are dropped.
func Parse(data []byte) ([]Finding, error) {
	content := strings.TrimSpace(stripFences(string(data)))
	if content == "" {
		return nil, nil
	}

	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		m := jsonBlock.FindString(content)
		if m == "" {
			if objs := recoverObjects(content); len(objs) > 0 {
				return fromItems(objs), nil
			}
			return nil, fmt.Errorf("no JSON payload in output")
		}
		if err := json.Unmarshal([]byte(m), &raw); err != nil {
			if objs := recoverObjects(m); len(objs) > 0 {
				return fromItems(objs), nil
			}
			return nil, fmt.Errorf("embedded JSON is unparseable: %w", err)
		}
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		if bugs, ok := v["bugs"].([]any); ok {
			items = bugs
		} else {
			items = []any{v}
		}
	default:
		return nil, fmt.Errorf("unexpected JSON payload of type %T", raw)
	}

	return fromItems(items), nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return s
}

// recoverObjects salvages individually valid objects from a truncated or
// corrupted JSON array by brace balancing. Braces inside string values are
// skipped via string-state tracking; each candidate is still validated by
// json.Unmarshal before it is kept.
func recoverObjects(content string) []any {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return nil
	}
	var objs []any
	depth := 0
	objStart := -1
	inString := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch c {
			case '\\':
				i++ // escaped character, including \"
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				objStart = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && objStart >= 0 {
				var obj map[string]any
				if err := json.Unmarshal([]byte(content[objStart:i+1]), &obj); err == nil {
					objs = append(objs, obj)
				}
				objStart = -1
			}
		}
	}
	return objs
}

func fromItems(items []any) []Finding {
	var out []Finding
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		f, ok := fromMap(m)
		if !ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// fromMap builds a Finding from one report object, tolerating the field
// aliases seen across models: filename/file/path, start_line/line/startLine,
// end_line/last_line/endLine, error_description/description/message.
func fromMap(m map[string]any) (Finding, bool) {
	name := firstString(m, "filename", "file", "path")
	if name == "" {
		return Finding{}, false
	}

	start, ok := firstInt(m, "start_line", "line", "startLine")
	if !ok {
		return Finding{}, false
	}
	end, ok := firstInt(m, "end_line", "last_line", "endLine")
	if !ok {
		end = start // single-line report
	}

	f := Finding{
		Filename:    gtruth.Basename(name),
		StartLine:   start,
		EndLine:     end,
		Severity:    firstString(m, "severity"),
		Description: firstString(m, "error_description", "description", "message"),
		ClaimedID:   UnmatchedID,
	}
	if f.Severity == "" {
		f.Severity = "unknown"
	}
	if c, ok := m["confidence"].(float64); ok {
		f.Confidence = c
	}
	return f, true
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func firstInt(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n), true
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}
