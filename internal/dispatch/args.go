package dispatch

// Args holds the raw arguments of one tool call. Values arrive JSON-decoded,
// so numbers are float64 and objects are map[string]any; the accessors
// normalize those shapes.
type Args map[string]any

// String returns the string value for key, or empty when absent or not a
// string.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// RequireString returns the string value for key, failing with an
// *InvalidArgumentError when the value is absent or empty.
func (a Args) RequireString(key string) (string, error) {
	s, _ := a[key].(string)
	if s == "" {
		return "", &InvalidArgumentError{Param: key}
	}
	return s, nil
}

// Bool returns the boolean value for key, or false when absent.
func (a Args) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Int returns the integer value for key, accepting JSON numbers.
func (a Args) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

// RequireInt32 returns the int32 value for key, failing with an
// *InvalidArgumentError when the value is absent or not a number.
func (a Args) RequireInt32(key string) (int32, error) {
	n, ok := a.Int(key)
	if !ok {
		return 0, &InvalidArgumentError{Param: key, Reason: "must be a number"}
	}
	return int32(n), nil
}

// Int32Or returns the int32 value for key, or def when absent.
func (a Args) Int32Or(key string, def int32) int32 {
	if n, ok := a.Int(key); ok {
		return int32(n)
	}
	return def
}

// Int64 returns a pointer to the int64 value for key, or nil when absent.
func (a Args) Int64(key string) *int64 {
	if n, ok := a.Int(key); ok {
		v := int64(n)
		return &v
	}
	return nil
}

// StringMap returns the string-to-string object value for key. Non-string
// entries are skipped.
func (a Args) StringMap(key string) map[string]string {
	raw, ok := a[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// StringSlice returns the string array value for key. Non-string entries are
// skipped.
func (a Args) StringSlice(key string) []string {
	raw, ok := a[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Has reports whether key is present.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}
