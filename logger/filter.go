package logger

import (
	"net/url"
	"reflect"
	"strings"
	"unsafe"
)

const (
	// DefaultMaxDepth bounds recursion when masking nested payloads
	DefaultMaxDepth = 8
	// DefaultMaskValue replaces sensitive values in log output
	DefaultMaskValue = "***"
)

// FilterConfig defines which field names are masked before log entries are
// emitted. Matching is a case-insensitive substring test, so "api_key" also
// catches "API_KEY" and "x-api-key-id".
type FilterConfig struct {
	// SensitiveFields contains field names that should be masked in logs
	SensitiveFields []string
	// MaskValue is the value used to replace sensitive data (default: "***")
	MaskValue string
}

// DefaultFilterConfig returns the built-in sensitive field list. It covers
// credentials, session material, and the personal identifiers request and
// response payloads commonly carry.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd",
			"secret", "key", "api_key", "apikey",
			"token", "access_token", "refresh_token",
			"auth", "authorization",
			"credential", "credentials",
			"cookie", "session",
			"email", "phone",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks sensitive fields in values bound for log output.
// Event adapters run every string and structured field through it, and the
// HTTP client uses it directly to sanitize URLs, headers, and error payloads.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a filter; a nil config selects the defaults
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString masks the value when its key is sensitive
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.isSensitiveField(key) {
		return f.maskString(value)
	}
	return value
}

// FilterValue masks sensitive fields anywhere inside value: maps, structs,
// and slices are walked recursively with cycle detection and a depth bound.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	visited := make(map[uintptr]struct{})
	return f.filterValue(key, value, visited, DefaultMaxDepth)
}

// FilterFields filters a map of fields for sensitive data
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for key, value := range fields {
		filtered[key] = f.FilterValue(key, value)
	}
	return filtered
}

// IsSensitiveKey reports whether a field or parameter name matches the
// configured sensitive field list.
func (f *SensitiveDataFilter) IsSensitiveKey(name string) bool {
	return f.isSensitiveField(name)
}

// Mask returns the configured mask value.
func (f *SensitiveDataFilter) Mask() string {
	return f.config.MaskValue
}

// filterValue is the recursive workhorse behind FilterValue. visited tracks
// addressable containers already on the walk; depth counts down to zero.
func (f *SensitiveDataFilter) filterValue(key string, value any, visited map[uintptr]struct{}, depth int) any {
	if f.isSensitiveField(key) {
		return f.config.MaskValue
	}

	if value == nil {
		return nil
	}

	if depth <= 0 {
		return value
	}

	return f.filterByKind(key, value, visited, depth)
}

func (f *SensitiveDataFilter) filterByKind(key string, value any, visited map[uintptr]struct{}, depth int) any {
	// Parsed JSON payloads arrive as map[string]any, the most common case
	if m, ok := value.(map[string]any); ok {
		return f.filterMap(m, visited, depth)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return f.filterList(key, rv, visited, depth)
	case reflect.Struct:
		return f.filterStructValue(value, visited, depth)
	case reflect.Pointer:
		if !rv.IsNil() && rv.Type().Elem().Kind() == reflect.Struct {
			return f.filterStructValue(value, visited, depth)
		}
		return value
	default:
		return value
	}
}

func (f *SensitiveDataFilter) filterMap(m map[string]any, visited map[uintptr]struct{}, depth int) map[string]any {
	filtered := make(map[string]any, len(m))
	for k, v := range m {
		filtered[k] = f.filterValue(k, v, visited, depth-1)
	}
	return filtered
}

func (f *SensitiveDataFilter) filterList(key string, rv reflect.Value, visited map[uintptr]struct{}, depth int) any {
	if rv.CanAddr() {
		ptr := uintptr(unsafe.Pointer(rv.UnsafeAddr()))
		if _, exists := visited[ptr]; exists {
			return rv.Interface()
		}
		visited[ptr] = struct{}{}
		defer delete(visited, ptr)
	}

	length := rv.Len()
	filtered := make([]any, length)
	changed := false

	for i := range length {
		elemVal := rv.Index(i)
		elem := elemVal.Interface()

		var masked any
		if isStructKind(elemVal.Type()) {
			// Struct elements always come back as maps
			masked = f.filterStructValue(elem, visited, depth-1)
			changed = true
		} else {
			masked = f.filterValue(key, elem, visited, depth-1)
			if !sameElement(masked, elem) {
				changed = true
			}
		}
		filtered[i] = masked
	}

	// Untouched lists keep their original concrete type
	if !changed {
		return rv.Interface()
	}

	return filtered
}

func isStructKind(t reflect.Type) bool {
	return t.Kind() == reflect.Struct || (t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct)
}

// sameElement reports whether a filtered element came back unchanged.
// Uncomparable kinds (maps, nested slices) count as changed: the walk
// rebuilds them.
func sameElement(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

// isSensitiveField checks if a field name is considered sensitive
func (f *SensitiveDataFilter) isSensitiveField(fieldName string) bool {
	lowerFieldName := strings.ToLower(fieldName)
	for _, sensitiveField := range f.config.SensitiveFields {
		if strings.Contains(lowerFieldName, strings.ToLower(sensitiveField)) {
			return true
		}
	}
	return false
}

// maskString masks a sensitive string. URLs keep their structure with only
// the password portion replaced; everything else is masked whole.
func (f *SensitiveDataFilter) maskString(value string) string {
	if value == "" {
		return value
	}

	if isURL(value) {
		return f.maskURL(value)
	}

	return f.config.MaskValue
}

func isURL(value string) bool {
	return strings.HasPrefix(value, "http://") ||
		strings.HasPrefix(value, "https://")
}

// maskURL masks the userinfo password in a URL while preserving the rest
func (f *SensitiveDataFilter) maskURL(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		// Unparseable: mask the whole thing rather than risk a leak
		return f.config.MaskValue
	}

	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			return f.urlWithMaskedPassword(parsed, parsed.User.Username())
		}
	}

	return urlStr
}

func (f *SensitiveDataFilter) urlWithMaskedPassword(parsed *url.URL, username string) string {
	var b strings.Builder

	b.WriteString(parsed.Scheme)
	b.WriteString("://")
	b.WriteString(username)
	b.WriteByte(':')
	b.WriteString(f.config.MaskValue)
	b.WriteByte('@')
	b.WriteString(parsed.Host)

	if p := parsed.EscapedPath(); p != "" {
		b.WriteString(p)
	}
	if q := parsed.RawQuery; q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	if frag := parsed.Fragment; frag != "" {
		b.WriteByte('#')
		b.WriteString(frag)
	}

	return b.String()
}

// filterStruct converts a struct (or pointer to one) into a map with
// sensitive fields masked
func (f *SensitiveDataFilter) filterStruct(value any) any {
	visited := make(map[uintptr]struct{})
	return f.filterStructValue(value, visited, DefaultMaxDepth)
}

func (f *SensitiveDataFilter) filterStructValue(value any, visited map[uintptr]struct{}, depth int) any {
	if value == nil {
		return nil
	}

	if depth <= 0 {
		return value
	}

	structVal, structType, ptr := derefStruct(value)
	if !structVal.IsValid() {
		return value
	}

	if ptr != 0 {
		if _, exists := visited[ptr]; exists {
			return value
		}
		visited[ptr] = struct{}{}
		defer delete(visited, ptr)
	}

	return f.maskStructFields(structVal, structType, visited, depth)
}

// derefStruct peels pointers off value and returns the underlying struct
// value plus a pointer identity usable for cycle detection. The zero
// reflect.Value signals a nil pointer or a non-struct.
func derefStruct(value any) (reflect.Value, reflect.Type, uintptr) {
	val := reflect.ValueOf(value)
	typ := reflect.TypeOf(value)
	var trackingPtr uintptr

	for typ.Kind() == reflect.Pointer {
		if val.IsNil() {
			return reflect.Value{}, nil, 0
		}
		if trackingPtr == 0 {
			trackingPtr = val.Pointer()
		}
		val = val.Elem()
		typ = typ.Elem()
	}

	if trackingPtr == 0 && val.CanAddr() {
		trackingPtr = uintptr(unsafe.Pointer(val.UnsafeAddr()))
	}

	if typ.Kind() != reflect.Struct {
		return reflect.Value{}, nil, 0
	}

	return val, typ, trackingPtr
}

func (f *SensitiveDataFilter) maskStructFields(structVal reflect.Value, structType reflect.Type, visited map[uintptr]struct{}, depth int) map[string]any {
	result := make(map[string]any, structVal.NumField())

	for i := 0; i < structVal.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := structVal.Field(i)

		if !field.IsExported() || !fieldValue.CanInterface() {
			continue
		}

		fieldName := jsonFieldName(&field)
		if fieldName == "" {
			continue
		}

		result[fieldName] = f.filterValue(fieldName, fieldValue.Interface(), visited, depth-1)
	}

	return result
}

// jsonFieldName resolves the log field name for a struct field, honoring
// json tags. An empty result means the field is excluded (json:"-").
func jsonFieldName(field *reflect.StructField) string {
	tag := field.Tag.Get("json")

	if tag == "-" {
		return ""
	}
	if tag == "" {
		return field.Name
	}

	if idx := strings.Index(tag, ","); idx != -1 {
		if name := tag[:idx]; name != "" {
			return name
		}
		return field.Name
	}

	return tag
}
