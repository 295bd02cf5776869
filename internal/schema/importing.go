package schema

import (
	"strings"

	"github.com/noah-isme/gradadmin-api/internal/models"
)

// StudentColumn is the synthetic leading column of job import sheets.
const StudentColumn = "onyen"

// ImportColumns returns the positional column order of an import sheet for kind.
// Reference lists never appear on a sheet.
func ImportColumns(kind models.EntityKind) []string {
	s, ok := For(kind)
	if !ok {
		return nil
	}
	cols := make([]string, 0, len(s.Fields)+1)
	if kind == models.KindJob {
		cols = append(cols, StudentColumn)
	}
	for _, f := range s.Fields {
		if f.Type == RefList {
			continue
		}
		cols = append(cols, f.Name)
	}
	return cols
}

// NormalizeCategory expands the shorthand category codes used on sheets.
// Unrecognised values are returned unchanged.
func NormalizeCategory(value string) string {
	switch strings.TrimSpace(value) {
	case "t", "T":
		return string(models.CategoryTheory)
	case "s", "S":
		return string(models.CategorySystems)
	case "a", "A", "applications", "Applications":
		return string(models.CategoryAppls)
	}
	return value
}
