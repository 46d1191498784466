package sync

import (
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/datakite/datakite/pkg/logging"
)

// Options controls job and project sync orchestration.
type Options struct {
	// Exclude holds basename patterns skipped during tree merges.
	Exclude []string

	// Strategy resolves workspace file conflicts. Nil means a file
	// conflict fails the merge.
	Strategy Strategy

	// DocStrategy resolves document key conflicts. Nil means conflicting
	// keys are skipped and reported.
	DocStrategy Strategy

	// Selection restricts a project sync to the given job ids. Nil means
	// all jobs; an empty non-nil selection syncs no jobs.
	Selection []string

	// CheckSchema enables the pre-flight schema compatibility check.
	CheckSchema bool

	// DryRun narrates every action without mutating anything.
	DryRun bool

	// Logger receives summaries at Info and per-action narration at Debug.
	Logger zerolog.Logger

	// Mutator overrides the mutator built from DryRun and Logger.
	Mutator Mutator
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		CheckSchema: true,
		Logger:      *logging.Default(),
	}
}

// mutator returns the configured mutator, building one against fs when no
// override is set.
func (o *Options) mutator(fs afero.Fs) Mutator {
	if o.Mutator != nil {
		return o.Mutator
	}
	if o.DryRun {
		return NewDryRunMutator(fs, o.Logger)
	}
	return NewMutator(fs, o.Logger)
}

// selectionSet normalizes the selection to a set, or nil for "all jobs".
func (o *Options) selectionSet() map[string]struct{} {
	if o.Selection == nil {
		return nil
	}
	set := make(map[string]struct{}, len(o.Selection))
	for _, id := range o.Selection {
		set[id] = struct{}{}
	}
	return set
}

// Option configures a sync operation.
type Option func(*Options)

// WithExclude appends basename patterns to skip during tree merges.
func WithExclude(patterns ...string) Option {
	return func(o *Options) {
		o.Exclude = append(o.Exclude, patterns...)
	}
}

// WithStrategy sets the workspace file conflict strategy.
func WithStrategy(s Strategy) Option {
	return func(o *Options) {
		o.Strategy = s
	}
}

// WithDocStrategy sets the document key conflict strategy.
func WithDocStrategy(s Strategy) Option {
	return func(o *Options) {
		o.DocStrategy = s
	}
}

// WithSelection restricts a project sync to the given job ids.
func WithSelection(ids ...string) Option {
	return func(o *Options) {
		if o.Selection == nil {
			o.Selection = []string{}
		}
		o.Selection = append(o.Selection, ids...)
	}
}

// WithSchemaCheck toggles the pre-flight schema compatibility check.
func WithSchemaCheck(check bool) Option {
	return func(o *Options) {
		o.CheckSchema = check
	}
}

// WithDryRun toggles dry-run mode.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithLogger sets the logger for summaries and narration.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithMutator overrides the mutator. Intended for tests and callers that
// need to observe or intercept mutations.
func WithMutator(m Mutator) Option {
	return func(o *Options) {
		o.Mutator = m
	}
}
