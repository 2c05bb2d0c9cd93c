package async

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/n42-extract/constants"
	"github.com/joseph-ayodele/n42-extract/internal/core"
	"github.com/joseph-ayodele/n42-extract/internal/ingest"
	"github.com/joseph-ayodele/n42-extract/internal/repository"
)

const doc = `<RadInstrumentData xmlns="http://physics.nist.gov/N42/2011/N42">
  <Nuclide>
    <NuclideName>Alpha</NuclideName>
    <NuclideActivityValue>12.5</NuclideActivityValue>
    <NuclideIDConfidenceUncertaintyValue>0.5</NuclideIDConfidenceUncertaintyValue>
  </Nuclide>
</RadInstrumentData>`

func TestProcessorQueue_RecordsAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: "sqlite", DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	runs := repository.NewRunRepository(db, nil)
	results := repository.NewResultRepository(db, nil)
	run, err := runs.Create(ctx, "watch", 2.0, time.Now())
	require.NoError(t, err)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.xml")
	copyOf := filepath.Join(dir, "copy.xml")
	broken := filepath.Join(dir, "broken.xml")
	require.NoError(t, os.WriteFile(first, []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(copyOf, []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(broken, []byte("<RadInstrumentData>"), 0o644))

	ing := ingest.NewFSIngestor(nil)
	proc := core.NewProcessor(nil, ing, nil, nil)
	// One worker keeps the dedup check ordered behind the first insert.
	q := NewProcessorQueue(proc, ing, run.ID, 2.0, nil, WithWorkers(1), WithQueueSize(4), WithResults(results))

	require.NoError(t, q.Enqueue(ctx, Job{Path: first}))
	require.NoError(t, q.Enqueue(ctx, Job{Path: copyOf}))
	require.NoError(t, q.Enqueue(ctx, Job{Path: broken}))
	require.NoError(t, q.Enqueue(ctx, Job{Path: copyOf, Force: true}))
	q.Shutdown(ctx)

	assert.Equal(t, Counts{Matched: 3, Succeeded: 2, Failed: 1, Skipped: 1}, q.Counts())

	list, err := results.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, first, list[0].SourcePath)
	assert.Equal(t, "12.5000 ± 0.5000", list[0].Row.AlphaActivity)
	assert.Equal(t, constants.DocumentStatusFailed, list[1].Status)
	assert.Equal(t, copyOf, list[2].SourcePath)

	// Enqueue after shutdown is a no-op.
	require.NoError(t, q.Enqueue(ctx, Job{Path: first}))
	assert.Equal(t, 3, q.Counts().Matched)
}
