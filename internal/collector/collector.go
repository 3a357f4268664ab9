package collector

import (
	"context"
)

// Collector gathers one category of project data for the session report.
type Collector interface {
	// Collect runs the collection logic for the project at root.
	// Warnings are returned as non-fatal issues in Result.Warnings.
	Collect(ctx context.Context, root string) (Result, error)
}

// Language is the number of project files sharing one extension.
type Language struct {
	Extension string `json:"extension" yaml:"extension"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Files     int    `json:"files" yaml:"files"`
}

// Result holds the output of a single collector.
type Result struct {
	Languages    []Language // populated by LanguageCollector
	Dependencies []string   // populated by DependencyCollector
	Warnings     []string   // non-fatal issues encountered
}

// Merge folds other into r.
func (r *Result) Merge(other Result) {
	r.Languages = append(r.Languages, other.Languages...)
	r.Dependencies = append(r.Dependencies, other.Dependencies...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// CollectAll runs every collector and merges their results. A collector that
// fails outright contributes a warning instead.
func CollectAll(ctx context.Context, root string, collectors ...Collector) Result {
	var result Result
	for _, c := range collectors {
		r, err := c.Collect(ctx, root)
		if err != nil {
			result.Warnings = append(result.Warnings, err.Error())
			continue
		}
		result.Merge(r)
	}
	return result
}
