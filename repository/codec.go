package repository

import "triptracker/store"

// Field readers never fail: a missing key or an unexpected type yields the
// zero value of the requested type.

func getString(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

func getInt64(doc map[string]any, key string) int64 {
	switch n := doc[key].(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func getFloat(doc map[string]any, key string) float64 {
	switch n := doc[key].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func getMap(doc map[string]any, key string) map[string]any {
	switch m := doc[key].(type) {
	case map[string]any:
		return m
	case store.Document:
		return m
	}
	return map[string]any{}
}

func getMaps(doc map[string]any, key string) []map[string]any {
	list, _ := doc[key].([]any)
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		switch m := e.(type) {
		case map[string]any:
			out = append(out, m)
		case store.Document:
			out = append(out, m)
		}
	}
	return out
}

func getStrings(doc map[string]any, key string) []string {
	list, _ := doc[key].([]any)
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringList(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
