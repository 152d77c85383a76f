package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournalWritesTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)

	rep := sampleReport()
	require.NoError(t, j.RecordRun(rep.Run))
	require.NoError(t, j.RecordSummaries(rep.RunID, "primary_outcome", rep.Summaries))
	require.NoError(t, j.RecordTimepoints(rep.RunID, rep.Timepoints))
	require.NoError(t, j.RecordSubgroups(rep.RunID, rep.Subgroups))
	require.NoError(t, j.Close())

	tests := []struct {
		file string
		want string
	}{
		{PrimarySummaryFile, "Parameter,Mean,Lower_CI,Upper_CI,Prob_Positive,Prob_Significant\n" +
			"Treatment Effect,1.650000,1.300000,2.000000,1.000000,0.998000\n"},
		{BiomarkerSummaryFile, "Timepoint,Mean_Effect,Lower_CI,Upper_CI,Prob_Positive\n" +
			"Baseline,0.200000,-1.100000,1.500000,0.610000\n" +
			"Week 12,6.100000,4.800000,7.400000,1.000000\n"},
		{SubgroupFile, "Subgroup,N,Effect_Size,Lower_CI,Upper_CI,P_Value\n" +
			"all,200,1.700000,1.400000,2.000000,0.000000\n" +
			"old,31,1.200000,-0.100000,2.500000,0.035000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			b, err := os.ReadFile(filepath.Join(dir, tt.file))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
		})
	}
}

func TestCSVJournalHeadersOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	b, err := os.ReadFile(filepath.Join(dir, SubgroupFile))
	require.NoError(t, err)
	assert.Equal(t, "Subgroup,N,Effect_Size,Lower_CI,Upper_CI,P_Value\n", string(b))
}

func TestNewCSVMissingDir(t *testing.T) {
	t.Parallel()

	_, err := NewCSV(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
