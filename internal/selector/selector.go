// Package selector partitions the test suite into schedulable work items.
//
// Two granularities are supported: one item per feature file, or one item
// per scenario. Scenario enumeration uses the Cucumber Gherkin parser so
// that Scenario Outlines expand to one item per Examples table row, each
// independently addressable by the engine as file:line.
package selector

import (
	"os"
	"path/filepath"
	"sort"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/rs/zerolog"

	"github.com/bdrun/bdrun/internal/constants"
	"github.com/bdrun/bdrun/internal/domain"
	"github.com/bdrun/bdrun/internal/errors"
)

// Selector discovers work items from feature files on disk.
type Selector struct {
	logger zerolog.Logger
}

// New creates a Selector.
func New(logger zerolog.Logger) *Selector {
	return &Selector{logger: logger}
}

// Select produces an ordered sequence of work items for the given mode.
//
// For constants.ModeFeatures, one item per feature file under featuresDir
// (or just the file filter when set). For constants.ModeScenarios, one
// item per scenario within the filtered feature set, including each
// Examples row of a Scenario Outline.
//
// Returns errors.ErrNoUnitsFound if the selection yields zero items;
// an empty selection is reported, never silently treated as success.
func (s *Selector) Select(mode, featuresDir, file string) ([]domain.WorkItem, error) {
	features, err := s.discoverFeatures(featuresDir, file)
	if err != nil {
		return nil, err
	}

	var items []domain.WorkItem
	switch mode {
	case constants.ModeFeatures:
		for _, f := range features {
			items = append(items, domain.WorkItem{Kind: domain.KindFeature, Feature: f})
		}
	case constants.ModeScenarios:
		for _, f := range features {
			scenarios, scanErr := s.enumerateScenarios(f)
			if scanErr != nil {
				return nil, scanErr
			}
			items = append(items, scenarios...)
		}
	default:
		return nil, errors.Wrapf(errors.ErrInvalidMode, "unknown mode %q", mode)
	}

	if len(items) == 0 {
		return nil, errors.Wrapf(errors.ErrNoUnitsFound, "mode %s, dir %s", mode, featuresDir)
	}

	s.logger.Debug().
		Str("mode", mode).
		Int("items", len(items)).
		Msg("work items selected")

	return items, nil
}

// discoverFeatures returns the sorted list of feature files to schedule.
// When file is set it is used as the only feature, bypassing discovery.
func (s *Selector) discoverFeatures(featuresDir, file string) ([]string, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, errors.Wrapf(errors.ErrNoUnitsFound, "feature file %s not found", file)
		}
		return []string{file}, nil
	}

	pattern := filepath.Join(featuresDir, "*"+constants.FeatureFileExt)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to glob %s", pattern)
	}

	sort.Strings(matches)
	return matches, nil
}

// enumerateScenarios parses one feature file and returns a work item per
// scenario, in file order. Scenarios inside Rule blocks are included;
// Backgrounds are not schedulable and are skipped.
func (s *Selector) enumerateScenarios(featureFile string) ([]domain.WorkItem, error) {
	f, err := os.Open(featureFile) //nolint:gosec // feature paths come from local discovery
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFeatureParse, "cannot open %s: %v", featureFile, err)
	}
	defer func() { _ = f.Close() }()

	ids := &messages.Incrementing{}
	doc, err := gherkin.ParseGherkinDocument(f, ids.NewId)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFeatureParse, "%s: %v", featureFile, err)
	}
	if doc.Feature == nil {
		return nil, nil
	}

	var items []domain.WorkItem
	for _, child := range doc.Feature.Children {
		if child.Rule != nil {
			for _, ruleChild := range child.Rule.Children {
				items = append(items, scenarioItems(featureFile, ruleChild.Scenario)...)
			}
			continue
		}
		items = append(items, scenarioItems(featureFile, child.Scenario)...)
	}

	s.logger.Debug().
		Str("feature", featureFile).
		Int("scenarios", len(items)).
		Msg("scenarios enumerated")

	return items, nil
}

// scenarioItems converts one parsed scenario into work items.
// A plain scenario yields one item at its own line. A Scenario Outline
// yields one item per Examples table body row, since the engine addresses
// individual rows by their line number.
func scenarioItems(featureFile string, sc *messages.Scenario) []domain.WorkItem {
	if sc == nil {
		return nil
	}

	if len(sc.Examples) == 0 {
		return []domain.WorkItem{{
			Kind:    domain.KindScenario,
			Feature: featureFile,
			Line:    int(sc.Location.Line),
			Name:    sc.Name,
		}}
	}

	var items []domain.WorkItem
	for _, examples := range sc.Examples {
		for _, row := range examples.TableBody {
			items = append(items, domain.WorkItem{
				Kind:    domain.KindScenario,
				Feature: featureFile,
				Line:    int(row.Location.Line),
				Name:    sc.Name,
			})
		}
	}
	return items
}
