package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/helm-preview/helm-preview/internal/diff"
	"github.com/helm-preview/helm-preview/internal/filter"
	"github.com/helm-preview/helm-preview/internal/manifest"
	"github.com/helm-preview/helm-preview/internal/model"
	"github.com/helm-preview/helm-preview/internal/ownership"
	"github.com/helm-preview/helm-preview/internal/risk"
)

// Options configures an Analyzer.
type Options struct {
	// ShowAll disables noise filtering.
	ShowAll bool

	// IgnorePaths are extra noise paths.
	IgnorePaths []string

	// ListSortKeys overrides the default unordered list table when non-nil.
	ListSortKeys map[string]string

	// ImmutableFields overrides the default immutable field table when non-nil.
	ImmutableFields map[string][]string

	// Release is the Helm release being previewed, used for ownership warnings.
	Release string

	// Exclude drops matching resources from both snapshots before pairing.
	Exclude *filter.Exclude

	// Concurrency is the number of pairs diffed in parallel. Values below 1
	// mean sequential.
	Concurrency int
}

// Analyzer turns two resource snapshots into a report.
type Analyzer struct {
	differ      *diff.Differ
	engine      *risk.Engine
	detector    ownership.Detector
	exclude     *filter.Exclude
	concurrency int
}

// NewAnalyzer creates an Analyzer with the default rules.
func NewAnalyzer(opts Options) *Analyzer {
	return NewAnalyzerWithRules(opts, risk.DefaultRules(opts.ImmutableFields)...)
}

// NewAnalyzerWithRules creates an Analyzer that evaluates the given rules.
func NewAnalyzerWithRules(opts Options, rules ...risk.Rule) *Analyzer {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Analyzer{
		differ: diff.NewDiffer(diff.Options{
			ShowAll:      opts.ShowAll,
			IgnorePaths:  opts.IgnorePaths,
			ListSortKeys: opts.ListSortKeys,
		}),
		engine:      risk.NewEngine(rules...),
		detector:    ownership.Detector{Release: opts.Release},
		exclude:     opts.Exclude,
		concurrency: concurrency,
	}
}

// Analyze pairs the snapshots and analyzes every pair. Excluded resources
// are neither reported nor counted.
func (a *Analyzer) Analyze(ctx context.Context, oldResources, newResources []*model.Resource) (*model.Report, error) {
	return a.AnalyzePairs(ctx, manifest.Pair(a.exclude.Apply(oldResources), a.exclude.Apply(newResources)))
}

// AnalyzePairs computes one entry per pair that still differs after
// filtering. Entries keep pairing order. Pairs that turn out unchanged
// are only counted.
func (a *Analyzer) AnalyzePairs(ctx context.Context, pairs []model.ResourcePair) (*model.Report, error) {
	entries := make([]*model.Entry, len(pairs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, pair := range pairs {
		if pair.Status == model.PairUnchanged {
			continue
		}
		i, pair := i, pair
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries[i] = a.analyzePair(pair)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to analyze resources: %w", err)
	}

	report := &model.Report{Entries: []model.Entry{}}
	for _, entry := range entries {
		if entry == nil {
			report.Unchanged++
			continue
		}
		report.Entries = append(report.Entries, *entry)
	}

	klog.V(2).Infof("Analyzed %d pairs: %d with changes, %d unchanged", len(pairs), len(report.Entries), report.Unchanged)
	return report, nil
}

func (a *Analyzer) analyzePair(pair model.ResourcePair) *model.Entry {
	record := a.differ.ComputeRecord(pair)
	if record == nil {
		return nil
	}

	info := a.detector.Detect(pair.Current())
	for _, w := range info.Warnings {
		klog.V(2).Infof("%s: ownership warning: %s", record.ResourceKey, w)
	}

	return &model.Entry{
		Record:    record,
		Risks:     a.engine.Assess(record),
		Ownership: &info,
	}
}
