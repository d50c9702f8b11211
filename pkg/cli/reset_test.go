package cli

import (
	"flag"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/moodsig/moodctl/pkg/data"
)

func TestCmdReset(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), data.DataFileName)
	require.NoError(t, data.Init(dbPath))
	db, err := data.GetDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, data.SaveParticipants(db, []*data.Participant{
		{
			ID:        "h01",
			Diagnosis: data.DiagnosisHealthy,
			Observations: []*data.Observation{
				{Seq: 0, Date: "2024-01-01", Scores: [data.ScoreCount]float64{1, 2, 3, 4, 5, 6}},
			},
		},
	}))
	_, err = data.SaveRun(db,
		&data.Run{Window: 20, Order: 2, Trees: 10, Training: 0.7, Seed: 1, Duration: "1s"},
		[]*data.PairResult{{GroupA: data.DiagnosisHealthy, GroupB: data.DiagnosisBipolar, Accuracy: 1, AUC: 1}})
	require.NoError(t, err)

	app := newApp()
	app.Metadata = map[string]interface{}{
		appConfigKey: &appConfig{DBPath: dbPath, DB: db},
	}

	set := flag.NewFlagSet("reset", flag.ContinueOnError)
	set.Bool(yesFlag.Name, true, "")
	ctx := cli.NewContext(app, set, nil)

	require.NoError(t, cmdReset(ctx))

	parts, err := data.SearchParticipants(db, "", 10)
	require.NoError(t, err)
	assert.Empty(t, parts)

	runs, err := data.GetRuns(db, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
