package models

import (
	"slices"
	"time"

	"github.com/wildtrack/ornitela-ingest/internal/utils"
)

// FileProcessingState is the per-integration bookkeeping persisted between
// runs: which files have already been turned into events and which have been
// relocated to cold storage. The state is read and produced here; persistence
// belongs to the state store collaborator.
type FileProcessingState struct {
	ProcessedFiles []string  `json:"processed_files"`
	ArchivedFiles  []string  `json:"archived_files"`
	LastRun        time.Time `json:"last_run,omitempty"`

	LastProcessedCount int `json:"last_processed_count,omitempty"`
	LastArchivedCount  int `json:"last_archived_count,omitempty"`
	LastDeletedCount   int `json:"last_deleted_count,omitempty"`
}

// ProcessedSet returns the processed file names as a set.
func (s FileProcessingState) ProcessedSet() map[string]struct{} {
	return utils.SliceToSet(s.ProcessedFiles)
}

// ArchivedSet returns the archived file names as a set.
func (s FileProcessingState) ArchivedSet() map[string]struct{} {
	return utils.SliceToSet(s.ArchivedFiles)
}

// MarkProcessed returns a copy of the state with name recorded as processed.
func (s FileProcessingState) MarkProcessed(name string) FileProcessingState {
	s.ProcessedFiles = addName(s.ProcessedFiles, name)
	return s
}

// MarkArchived returns a copy of the state with name recorded as archived.
func (s FileProcessingState) MarkArchived(name string) FileProcessingState {
	s.ArchivedFiles = addName(s.ArchivedFiles, name)
	return s
}

// Forget returns a copy of the state with name removed from both sets. Used
// once an archived file has been deleted for good.
func (s FileProcessingState) Forget(name string) FileProcessingState {
	s.ProcessedFiles = removeName(s.ProcessedFiles, name)
	s.ArchivedFiles = removeName(s.ArchivedFiles, name)
	return s
}

func addName(names []string, name string) []string {
	if slices.Contains(names, name) {
		return names
	}
	out := make([]string, len(names), len(names)+1)
	copy(out, names)
	return append(out, name)
}

func removeName(names []string, name string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
