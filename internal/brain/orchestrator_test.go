package brain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftsfr/wrds-crsp-compustat/internal/audit"
	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/internal/methodology"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/metrics"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(methodology.Default(), fixedClock, nil, logger.NewNop())
}

func TestPipeline_Compute_SixBuckets(t *testing.T) {
	results, stages := newTestPipeline().Compute(fixtureInputs())

	// formation June 2020 → held July..December 2020
	require.Len(t, results.Factors, 6)
	assert.Equal(t, contracts.NewMonth(2020, time.July), results.Factors[0].Month)
	assert.Equal(t, contracts.NewMonth(2020, time.December), results.Factors[5].Month)

	for _, f := range results.Factors {
		assert.InDelta(t, -0.03, f.SMB, 1e-12, "SMB %s", f.Month)
		assert.InDelta(t, 0.02, f.HML, 1e-12, "HML %s", f.Month)
	}
	for _, c := range results.FirmCounts {
		assert.Equal(t, 4, c.HML)
		assert.Equal(t, 6, c.SMB)
		assert.Equal(t, 6, c.Total)
	}

	require.Len(t, results.Portfolios, 36)
	july := results.Portfolios[:6]
	for i, code := range contracts.AllBuckets() {
		assert.Equal(t, code, july[i].Bucket)
		assert.Equal(t, 1, july[i].NFirms)
	}
	assert.InDelta(t, 0.01, july[0].VWRet, 1e-12)
	assert.InDelta(t, 0.06, july[5].VWRet, 1e-12)

	assert.Len(t, results.PanelRet, 6*24)
	assert.Len(t, results.PanelRetx, 6*24)

	assert.Len(t, stages, 8)
	assert.Equal(t, 6*24, stages[contracts.StageUniverse.String()].OutputCount)
	assert.Equal(t, 6, stages[contracts.StageLink.String()].OutputCount)
}

func TestPipeline_Compute_Idempotent(t *testing.T) {
	first, _ := newTestPipeline().Compute(fixtureInputs())
	second, _ := newTestPipeline().Compute(fixtureInputs())

	// %v prints NaN consistently, DeepEqual does not
	assert.Equal(t, fmt.Sprintf("%+v", first), fmt.Sprintf("%+v", second))
}

func TestPipeline_Compute_DoesNotMutateInputs(t *testing.T) {
	inputs := fixtureInputs()
	before := fmt.Sprintf("%+v", inputs)

	newTestPipeline().Compute(inputs)
	assert.Equal(t, before, fmt.Sprintf("%+v", inputs))
}

func TestPipeline_Panels(t *testing.T) {
	inputs := fixtureInputs()
	inputs.Securities[0].ShareType = "AD"
	inputs.Securities[1].Return = contracts.NaN()

	ret, retx := newTestPipeline().Panels(inputs.Securities)
	assert.Len(t, ret, 6*24-2)
	assert.Len(t, retx, 6*24-1)
}

func newTestOrchestrator(t *testing.T, store *memStore, opts ...Option) *Orchestrator {
	t.Helper()
	opts = append(opts, WithClock(fixedClock), WithMetrics(metrics.New()))
	o, err := NewOrchestrator(store, store, methodology.Default(), logger.NewNop(), opts...)
	require.NoError(t, err)
	return o
}

func TestOrchestrator_Run(t *testing.T) {
	store := newMemStore(fixtureInputs())
	o := newTestOrchestrator(t, store)

	result, err := o.Run(context.Background(), RunConfig{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.NotNil(t, result.QualitySnapshot)
	assert.Nil(t, result.Comparison)
	assert.Len(t, result.CompletedStages, 8)

	assert.Len(t, store.factors, 6)
	assert.Len(t, store.portfolios, 36)
	assert.Len(t, store.firmCounts, 6)
	assert.Len(t, store.panels[contracts.DatasetPanelRet], 6*24)
	assert.Len(t, store.panels[contracts.DatasetPanelRetx], 6*24)

	require.Len(t, store.snapshots, 1)
	snapshot := store.snapshots[0]
	assert.Equal(t, result.RunID, snapshot.RunID)
	assert.Equal(t, contracts.StageFactors, snapshot.Stage)
	assert.Equal(t, o.MethodologyHash(), snapshot.MethodologyHash)
	assert.Equal(t, fixedClock().Unix(), snapshot.Timestamp)
}

func TestOrchestrator_Run_SkipPanels(t *testing.T) {
	store := newMemStore(fixtureInputs())
	o := newTestOrchestrator(t, store)

	_, err := o.Run(context.Background(), RunConfig{RunID: "run-1", SkipPanels: true})
	require.NoError(t, err)
	assert.Empty(t, store.panels)
	assert.Equal(t, "run-1", store.snapshots[0].RunID)
}

func TestOrchestrator_Run_WithReference(t *testing.T) {
	store := newMemStore(fixtureInputs())
	for m := contracts.NewMonth(2020, time.July); m <= contracts.NewMonth(2020, time.December); m++ {
		// manual factors are constant, so only the join size is meaningful here
		wiggle := float64(m%3) * 0.001
		store.reference = append(store.reference, contracts.ReferenceRecord{Month: m, SMB: -0.03 + wiggle, HML: 0.02 + wiggle})
	}

	comparer := audit.NewComparer(0.9, logger.NewNop())
	o := newTestOrchestrator(t, store, WithReference(store, comparer, contracts.NewMonth(1970, time.January)))

	result, err := o.Run(context.Background(), RunConfig{})
	require.NoError(t, err)
	require.NotNil(t, result.Comparison)
	assert.Equal(t, 6, result.Comparison.SMB.N)
	assert.Contains(t, result.CompletedStages, contracts.StageAudit.String())
	assert.Equal(t, contracts.StageAudit, store.snapshots[0].Stage)
	assert.Equal(t, 6, store.snapshots[0].Outputs["reference_months"])
}

func TestOrchestrator_Run_MissingReferenceIsNotFatal(t *testing.T) {
	store := newMemStore(fixtureInputs())
	comparer := audit.NewComparer(0.9, logger.NewNop())
	o := newTestOrchestrator(t, store, WithReference(store, comparer, 0))

	result, err := o.Run(context.Background(), RunConfig{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Nil(t, result.Comparison)
}

func TestOrchestrator_Run_StructuralErrorAborts(t *testing.T) {
	store := newMemStore(fixtureInputs())
	store.loadErr = contracts.NewMissingColumn(contracts.DatasetSecurityMonths, "mthprc")
	o := newTestOrchestrator(t, store)

	result, err := o.Run(context.Background(), RunConfig{})
	require.Error(t, err)
	assert.True(t, contracts.IsStructural(err))
	assert.False(t, result.Success)
	assert.Empty(t, store.snapshots)
	assert.Nil(t, store.factors)
}

func TestOrchestrator_Run_EmptyInputAborts(t *testing.T) {
	inputs := fixtureInputs()
	inputs.Links = nil
	store := newMemStore(inputs)
	o := newTestOrchestrator(t, store)

	_, err := o.Run(context.Background(), RunConfig{})
	var se *contracts.StructuralError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, contracts.ErrKindEmptyInput, se.Kind)
}

func TestOrchestrator_Datasets(t *testing.T) {
	store := newMemStore(fixtureInputs())
	o := newTestOrchestrator(t, store)

	ret, retx, err := o.Datasets(context.Background())
	require.NoError(t, err)
	assert.Len(t, ret, 6*24)
	assert.Len(t, retx, 6*24)
	assert.Len(t, store.panels[contracts.DatasetPanelRet], 6*24)
	assert.Nil(t, store.factors)
}
