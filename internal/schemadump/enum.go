// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schemadump

import (
	"regexp"
	"strings"
)

var (
	inRegex  = regexp.MustCompile(`(?i)"?(\w+)"?\s+IN\s*\(\s*([^)]+)\)`)
	anyRegex = regexp.MustCompile(`(?i)"?(\w+)"?\)?(?:::\w+)?\s*=\s*ANY\s*\(\s*\(?ARRAY\s*\[([^\]]+)\]`)
)

// extractEnumValues extracts the column and its allowed values from a check constraint.
// It supports patterns like:
//   - "CHECK (status IN ('queued','running','done','failed'))"
//   - "CHECK ((status = ANY (ARRAY['queued'::text, 'running'::text])))"
func extractEnumValues(checkClause string) (string, []string) {
	if m := inRegex.FindStringSubmatch(checkClause); len(m) > 2 {
		return m[1], parseEnumValueList(m[2])
	}
	if m := anyRegex.FindStringSubmatch(checkClause); len(m) > 2 {
		return m[1], parseEnumValueList(m[2])
	}
	return "", nil
}

// parseEnumValueList parses a comma-separated list of enum values.
// It handles both single and double quotes and trims whitespace.
func parseEnumValueList(valueList string) []string {
	var result []string
	for _, val := range strings.Split(valueList, ",") {
		val = strings.TrimSpace(val)
		// Remove type casts like ::text
		if idx := strings.Index(val, "::"); idx >= 0 {
			val = val[:idx]
		}
		val = strings.Trim(val, "'\"")
		if val != "" {
			result = append(result, val)
		}
	}
	return result
}
