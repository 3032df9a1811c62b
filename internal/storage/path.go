package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var keyComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildExportPath lays exports out by UTC day: exports/date=YYYY-MM-DD/<query id>.<ext>.
func BuildExportPath(queryID, extension string, createdAt time.Time) (string, error) {
	if err := validateKeyComponent(queryID, "query id"); err != nil {
		return "", err
	}
	if err := validateKeyComponent(extension, "extension"); err != nil {
		return "", err
	}
	ts := createdAt.UTC()
	return path.Join(
		"exports",
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		queryID+"."+extension,
	), nil
}

func validateKeyComponent(value, field string) error {
	if !keyComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
