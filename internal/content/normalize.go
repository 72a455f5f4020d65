package content

import (
	"sort"
	"time"
)

// DateLayout is the calendar-date form every date value is normalized to.
const DateLayout = "2006-01-02"

// Normalize converts parsed front matter into its serializable form.
//
// time.Time values become YYYY-MM-DD strings (UTC calendar date), sequences
// and mappings are walked element-wise keeping order, and every other value
// passes through unchanged. A plain map[string]any has no order of its own,
// so it comes back as Metadata sorted by key. Normalize is total and
// idempotent.
func Normalize(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(DateLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(DateLayout)
	case Metadata:
		out := make(Metadata, len(t))
		for i, f := range t {
			out[i] = Field{Key: f.Key, Value: Normalize(f.Value)}
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Metadata, len(keys))
		for i, k := range keys {
			out[i] = Field{Key: k, Value: Normalize(t[k])}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	default:
		return v
	}
}

// NormalizeMetadata is Normalize for a whole front matter block.
func NormalizeMetadata(m Metadata) Metadata {
	if m == nil {
		return Metadata{}
	}
	return Normalize(m).(Metadata)
}
