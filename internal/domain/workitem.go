// Package domain contains the core types shared across bdrun components.
//
// IMPORTANT: This package may import internal/constants and internal/errors
// only. It MUST NOT import internal/cli, internal/runner, or any other
// component package.
package domain

import "fmt"

// ItemKind identifies the granularity of a work item.
type ItemKind string

const (
	// KindFeature schedules a whole feature file as one unit.
	KindFeature ItemKind = "feature"

	// KindScenario schedules a single scenario (or one Examples row of a
	// Scenario Outline) addressed by file:line.
	KindScenario ItemKind = "scenario"
)

// WorkItem identifies one schedulable unit of test execution.
// Items are immutable once created by the selector and are consumed
// exactly once by exactly one worker slot.
type WorkItem struct {
	// Kind is the granularity of this item.
	Kind ItemKind `json:"kind"`

	// Feature is the feature file path, relative to the working directory.
	Feature string `json:"feature"`

	// Line is the 1-based line of the scenario (or Examples row) within
	// the feature file. Zero for feature-level items.
	Line int `json:"line,omitempty"`

	// Name is the scenario name for display. Empty for feature-level items.
	Name string `json:"name,omitempty"`
}

// Location returns the engine-addressable location of the item:
// the bare file path for features, file:line for scenarios.
func (w WorkItem) Location() string {
	if w.Kind == KindScenario && w.Line > 0 {
		return fmt.Sprintf("%s:%d", w.Feature, w.Line)
	}
	return w.Feature
}

// String returns a human-readable description of the item.
func (w WorkItem) String() string {
	if w.Name != "" {
		return fmt.Sprintf("%s - %s", w.Location(), w.Name)
	}
	return w.Location()
}
