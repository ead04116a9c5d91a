package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
)

// maxInlineJSON is the rendered size above which a JSON document is summarized
// and sampled instead of inlined whole.
const maxInlineJSON = 2000

// extractJSON renders a JSON document as a fenced code block. Large payloads
// become a one-line shape summary plus a deterministic sample; invalid JSON
// degrades to a truncated raw fence.
func extractJSON(data []byte) []core.Block {
	text := SafeText(data)

	var obj any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		raw := text
		if len([]rune(raw)) > maxInlineJSON {
			raw = string([]rune(raw)[:maxInlineJSON])
		}
		return []core.Block{{Text: "```json\n" + raw + "\n```", HeadingPath: "Root"}}
	}

	pretty, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return []core.Block{{Text: "```json\n" + text + "\n```", HeadingPath: "Root"}}
	}

	if len(pretty) <= maxInlineJSON {
		return []core.Block{{Text: "```json\n" + string(pretty) + "\n```", HeadingPath: "Root"}}
	}

	summary, sample := summarizeJSON(obj)
	return []core.Block{
		{Text: summary, HeadingPath: "Root"},
		{Text: "```json\n" + sample + "\n```", HeadingPath: "Root"},
	}
}

// summarizeJSON describes the top-level shape and samples the first entries.
// Map keys are sorted before sampling so identical input yields identical
// output regardless of map iteration order.
func summarizeJSON(obj any) (summary, sample string) {
	switch v := obj.(type) {
	case []any:
		summary = fmt.Sprintf("JSON array with %d items", len(v))
		n := len(v)
		if n > 5 {
			n = 5
		}
		b, _ := json.MarshalIndent(v[:n], "", "  ")
		sample = string(b)
	case map[string]any:
		summary = fmt.Sprintf("JSON object with %d entries", len(v))
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 5 {
			keys = keys[:5]
		}
		var sb strings.Builder
		sb.WriteString("{\n")
		for i, k := range keys {
			kb, _ := json.Marshal(k)
			vb, _ := json.MarshalIndent(v[k], "  ", "  ")
			sb.WriteString("  " + string(kb) + ": " + string(vb))
			if i < len(keys)-1 {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("}")
		sample = sb.String()
	default:
		b, _ := json.Marshal(v)
		summary = "JSON scalar"
		sample = string(b)
	}
	return summary, sample
}
