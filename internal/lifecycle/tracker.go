// Package lifecycle classifies stored telemetry files against the persisted
// processing state. It is pure bookkeeping: the archive/delete/processing
// actions themselves belong to the orchestrating service, which folds their
// outcomes back into the state for the next run.
package lifecycle

import (
	"strings"
	"time"

	"github.com/wildtrack/ornitela-ingest/internal/models"
	"github.com/wildtrack/ornitela-ingest/pkg/storage"
)

// ArchiveFolder is the bucket sub-path processed files are relocated to.
const ArchiveFolder = "archive/"

// Plan is the deterministic classification of one bucket listing: files to
// process, processed files due for archival, and archived files due for
// deletion. Names in ToDelete are the original file names; their stored
// copies live under ArchiveFolder.
type Plan struct {
	NewFiles  []storage.FileInfo
	ToArchive []string
	ToDelete  []string
}

// Classify walks the listing against the current state. Directory
// placeholders (names ending in "/") are skipped, and so is anything under
// ArchiveFolder that is not a known archived file. A file absent from the
// processed set is new; a processed-but-unarchived file whose modification
// time is archiveAfterDays old is due for archival; an archived copy
// deleteAfterDays old is due for deletion and will be forgotten entirely.
func Classify(state models.FileProcessingState, listing []storage.FileInfo,
	now time.Time, archiveAfterDays, deleteAfterDays int) Plan {

	processed := state.ProcessedSet()
	archived := state.ArchivedSet()

	var plan Plan
	for _, f := range listing {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}

		if strings.HasPrefix(f.Name, ArchiveFolder) {
			name := strings.TrimPrefix(f.Name, ArchiveFolder)
			if _, ok := archived[name]; ok && daysBetween(f.Updated, now) >= deleteAfterDays {
				plan.ToDelete = append(plan.ToDelete, name)
			}
			continue
		}

		if _, ok := processed[f.Name]; !ok {
			plan.NewFiles = append(plan.NewFiles, f)
			continue
		}
		if _, ok := archived[f.Name]; !ok && daysBetween(f.Updated, now) >= archiveAfterDays {
			plan.ToArchive = append(plan.ToArchive, f.Name)
		}
	}
	return plan
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
