// Package validation checks tool arguments before any remote call is made
// and scrubs sensitive fragments out of messages that leave the process.
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// MaxIdentifierLength is the longest dataset or table ID accepted.
const MaxIdentifierLength = 1024

// DefaultMaxDepth bounds lineage depth arguments.
const DefaultMaxDepth = 10

// ErrInvalidArgument marks every validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	credentialsPath   = regexp.MustCompile(`/[^\s]+\.json`)
	opaqueToken       = regexp.MustCompile(`[A-Za-z0-9_-]{20,}`)
	privateKeyField   = regexp.MustCompile(`"private_key":\s*"[^"]+"`)
)

// ValidateDatasetID checks a BigQuery dataset ID: non-empty, at most 1024
// characters, letters/digits/underscores only.
func ValidateDatasetID(id string) (string, error) {
	return validateIdentifier("Dataset ID", "dataset ID", id)
}

// ValidateTableID checks a BigQuery table ID with the same rules as datasets.
func ValidateTableID(id string) (string, error) {
	return validateIdentifier("Table ID", "table ID", id)
}

func validateIdentifier(label, lower, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", ErrInvalidArgument, label)
	}
	if len(id) > MaxIdentifierLength {
		return "", fmt.Errorf("%w: %s exceeds maximum length of %d characters",
			ErrInvalidArgument, label, MaxIdentifierLength)
	}
	if !identifierPattern.MatchString(id) {
		return "", fmt.Errorf("%w: invalid %s format. Must contain only letters, numbers, and underscores",
			ErrInvalidArgument, lower)
	}
	return id, nil
}

// ValidateDepth checks a lineage depth argument. JSON numbers arrive as
// float64, so integral floats are accepted.
func ValidateDepth(depth any, max int) (int, error) {
	var n float64
	switch v := depth.(type) {
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	default:
		return 0, fmt.Errorf("%w: depth must be a number", ErrInvalidArgument)
	}
	if math.IsNaN(n) {
		return 0, fmt.Errorf("%w: depth must be a number", ErrInvalidArgument)
	}
	// Range first: int(n) is undefined for values outside the int range.
	if n < 1 {
		return 0, fmt.Errorf("%w: depth must be at least 1", ErrInvalidArgument)
	}
	if n > float64(max) {
		return 0, fmt.Errorf("%w: depth cannot exceed %d", ErrInvalidArgument, max)
	}
	if n != math.Trunc(n) {
		return 0, fmt.Errorf("%w: depth must be an integer", ErrInvalidArgument)
	}
	return int(n), nil
}

// ErrorMessage renders err for a tool caller with credential file paths and
// long opaque tokens redacted. Validation failures drop the sentinel prefix.
func ErrorMessage(err error) string {
	if err == nil {
		return "An unknown error occurred"
	}
	msg := err.Error()
	if errors.Is(err, ErrInvalidArgument) {
		msg = strings.TrimPrefix(msg, ErrInvalidArgument.Error()+": ")
	}
	msg = credentialsPath.ReplaceAllString(msg, "[credentials file]")
	msg = opaqueToken.ReplaceAllString(msg, "[redacted]")
	return msg
}

// SanitizeForLogging removes tokens, credential paths and inline private keys.
func SanitizeForLogging(s string) string {
	s = opaqueToken.ReplaceAllString(s, "[redacted]")
	s = credentialsPath.ReplaceAllString(s, "[credentials]")
	s = privateKeyField.ReplaceAllString(s, `"private_key": "[redacted]"`)
	return s
}
