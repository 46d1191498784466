// Package sync implements the datakite merge engine: it reconciles job
// workspaces and documents between two projects, clones jobs that only
// exist in the source, and merges jobs that exist on both sides using
// pluggable per-conflict strategies. Every mutating action passes through a
// single Mutator so that dry runs and narration behave uniformly.
//
// The engine is single-threaded and synchronous. Transactional guarantees
// cover documents only: a failed document merge restores the destination
// file from a scoped backup, while a failed tree merge may leave a
// partially copied workspace behind.
package sync

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"

	"github.com/datakite/datakite/pkg/errors"
	"github.com/datakite/datakite/pkg/project"
)

// Jobs merges the source job into the destination job: the workspace trees
// first, then the job documents. Both jobs must share the same id; the
// manifest and document files are always excluded from the tree merge (the
// manifest is immutable identity data and the document is merged
// transactionally). Returns the union of skipped document keys.
func Jobs(src, dst *project.Job, opts ...Option) (SkippedKeys, error) {
	o := Defaults().Apply(opts...)
	return mergeJobs(src, dst, o, o.mutator(src.Fs()))
}

// mergeJobs implements Jobs against an already constructed mutator.
func mergeJobs(src, dst *project.Job, o *Options, m Mutator) (SkippedKeys, error) {
	if src.ID() != dst.ID() {
		return nil, errors.NewValidationError("job", src.ID(),
			fmt.Sprintf("cannot merge into job %s: ids differ", dst.ID()))
	}
	m.Logger().Debug().Str("job", src.ID()).Bool("dry_run", m.DryRun()).Msg("Merging job")

	patterns := make([]string, 0, len(o.Exclude)+2)
	patterns = append(patterns, o.Exclude...)
	patterns = append(patterns,
		regexp.QuoteMeta(project.FNManifest),
		regexp.QuoteMeta(project.FNDocument))
	exclude, err := CompileExcludes(patterns...)
	if err != nil {
		return nil, err
	}

	if err := MergeDirs(src.Fs(), src.Dir(), dst.Dir(), exclude, o.Strategy, m); err != nil {
		return nil, err
	}

	srcDoc, err := src.Document()
	if err != nil {
		return nil, err
	}
	dstDoc, err := dst.Document()
	if err != nil {
		return nil, err
	}
	return SyncDocuments(srcDoc, dstDoc, o.DocStrategy, m)
}

// Projects merges the source project into the destination project. Every
// selected source job is cloned into the destination, or merged when the
// destination already has a job with that id. The project documents are
// merged first. An optional pre-flight schema check guards against merging
// structurally incompatible projects.
func Projects(source, destination *project.Project, opts ...Option) (*Result, error) {
	o := Defaults().Apply(opts...)
	if source.Root() == destination.Root() {
		return nil, errors.ErrSameProject
	}
	m := o.mutator(source.Fs())
	logger := m.Logger()

	if o.CheckSchema {
		srcSchema, err := source.DetectSchema()
		if err != nil {
			return nil, err
		}
		dstSchema, err := destination.DetectSchema()
		if err != nil {
			return nil, err
		}
		if !dstSchema.IsZero() &&
			(len(srcSchema.Difference(dstSchema)) > 0 || len(dstSchema.Difference(srcSchema)) > 0) {
			return nil, errors.NewSchemaConflictError(srcSchema, dstSchema)
		}
	}

	selection := o.selectionSet()
	event := logger.Info().
		Str("source", source.Root()).
		Str("destination", destination.Root())
	if selection != nil {
		event = event.Int("selected", len(selection))
	}
	event.Msg("Syncing project")
	if o.DryRun {
		logger.Info().Msg("Performing dry run")
	}
	if len(o.Exclude) > 0 {
		logger.Debug().Strs("exclude", o.Exclude).Msg("Exclude patterns")
	}
	if o.Strategy != nil {
		logger.Debug().Str("strategy", o.Strategy.Name()).Msg("Merge strategy")
	}

	result := &Result{SkippedKeys: SkippedKeys{}, DryRun: o.DryRun}

	srcDoc, err := source.Document()
	if err != nil {
		return nil, err
	}
	dstDoc, err := destination.Document()
	if err != nil {
		return nil, err
	}
	skipped, err := SyncDocuments(srcDoc, dstDoc, o.DocStrategy, m)
	if err != nil {
		return nil, err
	}
	result.SkippedKeys.Update(skipped)

	jobs, err := source.Jobs()
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if selection != nil {
			if _, ok := selection[job.ID()]; !ok {
				logger.Debug().Str("job", job.ID()).Msg("Job not in selection")
				continue
			}
		}

		err := cloneJob(destination, job, m)
		if err == nil {
			result.Cloned++
			logger.Debug().Str("job", job.ID()).Msg("Cloned job")
			continue
		}
		if !errors.IsAlreadyExists(err) {
			return nil, errors.NewSyncError(source.Root(), destination.Root(), job.ID(), err)
		}

		dstJob, err := destination.OpenJob(job.ID())
		if err != nil {
			// A job that exists but cannot be opened indicates an
			// inconsistency between clone and lookup.
			return nil, errors.NewSyncError(source.Root(), destination.Root(), job.ID(), err)
		}
		jobSkipped, err := mergeJobs(job, dstJob, o, m)
		if err != nil {
			return nil, errors.NewSyncError(source.Root(), destination.Root(), job.ID(), err)
		}
		result.SkippedKeys.Update(jobSkipped)
		result.Merged++
		logger.Debug().Str("job", job.ID()).Msg("Merged job")
	}

	logger.Info().Int("cloned", result.Cloned).Int("merged", result.Merged).Msg("Sync complete")
	if result.SkippedKeys.Len() > 0 {
		logger.Info().Int("count", result.SkippedKeys.Len()).Msg("Skipped document key(s)")
		logger.Debug().Strs("keys", result.SkippedKeys.Sorted()).Msg("Skipped keys")
	}
	return result, nil
}

// cloneJob clones through the store in normal mode. In dry-run mode the
// clone is simulated through the mutator instead, so a dry run never
// mutates the destination.
func cloneJob(destination *project.Project, job *project.Job, m Mutator) error {
	if !m.DryRun() {
		_, err := destination.Clone(job)
		return err
	}

	dstDir := filepath.Join(destination.WorkspacePath(), job.ID())
	exists, err := afero.DirExists(destination.Fs(), dstDir)
	if err != nil {
		return errors.WrapIO("stat", dstDir, err)
	}
	if exists {
		return errors.NewExistsError("job", job.ID())
	}
	return m.CopyTree(job.Dir(), dstDir)
}
