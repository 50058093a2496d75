package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTypeValid(t *testing.T) {
	assert.True(t, RunTypeManual.Valid())
	assert.True(t, RunTypeScheduled.Valid())
	assert.True(t, RunTypeBatch.Valid())
	assert.False(t, RunType("cron").Valid())
	assert.False(t, RunType("").Valid())
}

func TestJobSourceValid(t *testing.T) {
	assert.True(t, JobSourceIntelligence.Valid())
	assert.True(t, JobSourcePosting.Valid())
	assert.False(t, JobSource("billboard").Valid())
	assert.False(t, JobSource("").Valid())
}

func TestStudentFullName(t *testing.T) {
	student := &Student{FirstName: "Asha", LastName: "Nair"}
	assert.Equal(t, "Asha Nair", student.FullName())
}

func TestScoreBreakdownScan(t *testing.T) {
	t.Run("FromBytes", func(t *testing.T) {
		var b ScoreBreakdown
		require.NoError(t, b.Scan([]byte(`{"method":"completeness_v1"}`)))
		assert.JSONEq(t, `{"method":"completeness_v1"}`, string(b))
	})

	t.Run("FromString", func(t *testing.T) {
		var b ScoreBreakdown
		require.NoError(t, b.Scan(`{"completeness":80}`))
		assert.JSONEq(t, `{"completeness":80}`, string(b))
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		var b ScoreBreakdown
		assert.Error(t, b.Scan(42))
	})
}

func TestScoreBreakdownJSON(t *testing.T) {
	type wrapper struct {
		Breakdown ScoreBreakdown `json:"breakdown"`
	}

	payload, err := json.Marshal(wrapper{Breakdown: ScoreBreakdown(`{"final":90}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"breakdown":{"final":90}}`, string(payload))

	var decoded wrapper
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.JSONEq(t, `{"final":90}`, string(decoded.Breakdown))
}
