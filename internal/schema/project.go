package schema

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
}

// Project keeps the declared fields of raw, coerces each to its declared type and fills
// declared defaults for absent optional fields. Unknown keys are dropped. Presence of
// required fields is not checked here; see RequireFields.
func Project(raw url.Values, s Schema) (Record, error) {
	rec := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		values := present(raw, f.Name)
		if len(values) == 0 {
			if f.Default != nil {
				rec[f.Name] = f.Default
			}
			continue
		}
		v, err := coerce(f, values)
		if err != nil {
			return nil, err
		}
		rec[f.Name] = v
	}
	return rec, nil
}

// ProjectPartial keeps only the declared fields that carry a value, for use as a search filter.
func ProjectPartial(raw url.Values, s Schema) (Record, error) {
	rec := make(Record)
	for _, f := range s.Fields {
		values := present(raw, f.Name)
		if len(values) == 0 {
			continue
		}
		if f.Type == RefList {
			// a list filter matches on membership of a single id
			v, err := parseRef(f, values[0])
			if err != nil {
				return nil, err
			}
			rec[f.Name] = v
			continue
		}
		if f.Search {
			rec[f.Name] = values[0]
			continue
		}
		v, err := coerce(f, values)
		if err != nil {
			return nil, err
		}
		rec[f.Name] = v
	}
	return rec, nil
}

// AllRequiredFieldsPresent reports whether every non-optional field is present and non-empty.
func AllRequiredFieldsPresent(raw url.Values, s Schema) bool {
	_, ok := firstMissing(raw, s)
	return !ok
}

// RequireFields returns MISSING_REQUIRED_FIELD naming the first absent required field.
func RequireFields(raw url.Values, s Schema) error {
	if name, ok := firstMissing(raw, s); ok {
		return appErrors.Clonef(appErrors.ErrMissingRequiredField, "missing required field %s", name)
	}
	return nil
}

// Decode materialises a projected record into dst, a pointer to a model struct.
func Decode(rec Record, dst interface{}) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

func firstMissing(raw url.Values, s Schema) (string, bool) {
	for _, f := range s.Required() {
		if len(present(raw, f.Name)) == 0 {
			return f.Name, true
		}
	}
	return "", false
}

// present returns the trimmed non-empty values of key.
func present(raw url.Values, key string) []string {
	var out []string
	for _, v := range raw[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func coerce(f Field, values []string) (interface{}, error) {
	value := values[0]
	switch f.Type {
	case String:
		return value, nil
	case Int:
		return ParseInt(f.Name, value)
	case Bool:
		return ParseBool(f.Name, value)
	case Date:
		return ParseDate(f.Name, value)
	case Enum:
		return ParseEnum(f.Name, value, f.Enum)
	case Ref:
		return parseRef(f, value)
	case RefList:
		return parseRefList(f, values)
	default:
		return nil, fmt.Errorf("schema: field %s has unsupported type %s", f.Name, f.Type)
	}
}

func invalid(field, value, want string) error {
	return appErrors.Clonef(appErrors.ErrInvalidFormat, "%s: %q is not a valid %s", field, value, want)
}

// ParseInt parses a whole number, accepting spreadsheet renderings such as "3.0".
func ParseInt(field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	if fl, err := strconv.ParseFloat(value, 64); err == nil && fl == float64(int(fl)) {
		return int(fl), nil
	}
	return 0, invalid(field, value, "integer")
}

// ParseBool accepts the usual boolean spellings plus checkbox and yes/no values.
func ParseBool(field, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, invalid(field, value, "boolean")
	}
	return b, nil
}

// ParseDate accepts ISO dates and the US renderings spreadsheets produce.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid(field, value, "date")
}

// ParseEnum matches value case-insensitively and returns the canonical spelling.
func ParseEnum(field, value string, allowed []string) (string, error) {
	value = strings.TrimSpace(value)
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, value) {
			return candidate, nil
		}
	}
	return "", appErrors.Clonef(appErrors.ErrInvalidFormat, "%s: %q is not one of %s", field, value, strings.Join(allowed, ", "))
}

func parseRef(f Field, value string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", invalid(f.Name, value, string(f.RefKind)+" id")
	}
	return id.String(), nil
}

func parseRefList(f Field, values []string) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			id, err := parseRef(f, part)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}
