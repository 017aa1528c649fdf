package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
)

// JsonRepairStats tracks statistics about a JSON repair attempt
type JsonRepairStats struct {
	OriginalBytes    int           `json:"original_bytes"`
	RepairedBytes    int           `json:"repaired_bytes"`
	ErrorsFixed      int           `json:"errors_fixed"`
	RepairTime       time.Duration `json:"repair_time"`
	RepairStrategies []string      `json:"repair_strategies"`
	WasRepaired      bool          `json:"was_repaired"`
}

var (
	trailingBraceComma   = regexp.MustCompile(`,\s*}`)
	trailingBracketComma = regexp.MustCompile(`,\s*]`)
)

// RepairJSON attempts to repair a malformed JSON object using these strategies in order:
// 1. Remove trailing commas
// 2. Close objects/arrays the model left open
// 3. Use the jsonrepair library as the fallback
//
// Strategies that rewrite quotes or strip comment markers are deliberately absent:
// analysis text is prose full of apostrophes and URLs.
func RepairJSON(raw string) (repaired string, stats JsonRepairStats, err error) {
	startTime := time.Now()
	stats.OriginalBytes = len(raw)

	if json.Valid([]byte(raw)) {
		stats.RepairedBytes = len(raw)
		stats.RepairTime = time.Since(startTime)
		return raw, stats, nil
	}

	stats.WasRepaired = true
	repaired = raw

	// Strategy 1: Remove trailing commas
	if trailingBraceComma.MatchString(repaired) || trailingBracketComma.MatchString(repaired) {
		repaired = removeTrailingCommas(repaired)
		stats.RepairStrategies = append(stats.RepairStrategies, "trailing_commas")
		stats.ErrorsFixed++
	}

	// Strategy 2: Fix incomplete objects/arrays
	if needsCompletion(repaired) {
		original := repaired
		repaired = completeJSON(repaired)
		if repaired != original {
			stats.RepairStrategies = append(stats.RepairStrategies, "completion")
			stats.ErrorsFixed++
		}
	}

	// Strategy 3: jsonrepair library
	if !json.Valid([]byte(repaired)) {
		libraryRepaired, libraryErr := jsonrepair.JSONRepair(repaired)
		if libraryErr == nil && libraryRepaired != repaired {
			repaired = libraryRepaired
			stats.RepairStrategies = append(stats.RepairStrategies, "jsonrepair_library")
			stats.ErrorsFixed++
		}
	}

	stats.RepairedBytes = len(repaired)
	stats.RepairTime = time.Since(startTime)

	if !json.Valid([]byte(repaired)) {
		return repaired, stats, fmt.Errorf("JSON repair failed after %d strategies", len(stats.RepairStrategies))
	}

	return repaired, stats, nil
}

// removeTrailingCommas removes trailing commas before } and ]
func removeTrailingCommas(s string) string {
	s = trailingBraceComma.ReplaceAllString(s, "}")
	return trailingBracketComma.ReplaceAllString(s, "]")
}

// needsCompletion reports whether objects or arrays were left open, ignoring
// braces that appear inside string literals
func needsCompletion(s string) bool {
	return len(openStack(s)) > 0
}

// completeJSON appends the missing closing braces/brackets in LIFO order
func completeJSON(s string) string {
	s = strings.TrimSpace(s)
	stack := openStack(s)
	var sb strings.Builder
	sb.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteRune(stack[i])
	}
	return sb.String()
}

// openStack scans s and returns the closers still owed, outermost first
func openStack(s string) []rune {
	var stack []rune
	inString := false
	escaped := false

	for _, char := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case char == '\\':
				escaped = true
			case char == '"':
				inString = false
			}
			continue
		}

		switch char {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == char {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return stack
}
