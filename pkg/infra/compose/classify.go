package compose

import "strings"

// The compose CLI writes progress and warning text to its diagnostic
// stream even on success, so a non-empty stream is not a failure by
// itself. Classification is deliberately concentrated here: a step is
// failed iff the process errored or its combined output carries an
// explicit failure marker. This is a named, fallible heuristic over
// tool output, kept in one place and tested against captured outputs.

var failureMarkers = []string{"error", "fail"}

// unhealthyStates are status words of a container that started and
// then died or keeps dying.
var unhealthyStates = []string{"exited", "exit ", "restarting", "dead"}

// classifyOutput returns an empty string when the step succeeded, or a
// failure message otherwise.
func classifyOutput(output string, err error) string {
	if err != nil {
		return failText(output, err)
	}
	if line := markerLine(output); line != "" {
		return line
	}
	return ""
}

// markerLine returns the first output line carrying a failure marker,
// case-insensitive.
func markerLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		for _, marker := range failureMarkers {
			if strings.Contains(lower, marker) {
				return strings.TrimSpace(line)
			}
		}
	}
	return ""
}

// unhealthyContainers scans "compose ps --all" output for containers
// in a crashed, exited or restart-looping state and returns the
// offending lines. The header line is skipped.
func unhealthyContainers(psOutput string) []string {
	var bad []string
	for i, line := range strings.Split(psOutput, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || i == 0 && strings.Contains(trimmed, "NAME") {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, state := range unhealthyStates {
			if strings.Contains(lower, state) {
				bad = append(bad, trimmed)
				break
			}
		}
	}
	return bad
}
