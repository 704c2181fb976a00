package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/dynamic-memory/internal/model"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixtures() []model.Memory {
	mk := func(id int64, typ model.Type, content string, importance float64, access int, hour int) model.Memory {
		at := t0.Add(time.Duration(hour-9) * time.Hour)
		return model.Memory{
			ID: id, Type: typ, Content: content, Confidence: 0.8, Importance: importance,
			CreatedAt: at, LastAccessedAt: at, AccessCount: access, History: []model.HistoryEntry{},
		}
	}
	return []model.Memory{
		mk(3, model.TypeProcedural, "brew the coffee\nthen pour", 0.9, 4, 14),
		mk(1, model.TypeEpisodic, "met Li at the cafe", 0.2, 0, 9),
		mk(2, model.TypeSemantic, "Go was released in 2009", 0.5, 7, 9),
	}
}

func TestStructuredIncludesStatistics(t *testing.T) {
	v, err := Build(ViewStructured, fixtures())
	require.NoError(t, err)

	s := v.(Structured)
	require.Len(t, s.Memories, 3)
	assert.Equal(t, int64(1), s.Memories[0].ID)
	assert.Equal(t, 3, s.Statistics.Total)
	assert.Equal(t, 11, s.Statistics.TotalAccessCount)
}

func TestByTypeHasEveryBucket(t *testing.T) {
	got := ByType(fixtures())
	assert.Len(t, got, 4)
	assert.Len(t, got[model.TypeEpisodic], 1)
	assert.Len(t, got[model.TypeSemantic], 1)
	assert.Len(t, got[model.TypeProcedural], 1)
	assert.NotNil(t, got[model.TypeUnknown])
	assert.Empty(t, got[model.TypeUnknown])
}

func TestMinimal(t *testing.T) {
	got := MinimalOf(fixtures())
	require.Len(t, got, 3)
	assert.Equal(t, Minimal{ID: 2, Type: model.TypeSemantic, Content: "Go was released in 2009", Importance: 0.5}, got[1])
}

func TestText(t *testing.T) {
	want := "[1] episodic importance=0.20 accessed=0: met Li at the cafe\n" +
		"[2] semantic importance=0.50 accessed=7: Go was released in 2009\n" +
		"[3] procedural importance=0.90 accessed=4: brew the coffee then pour\n"
	assert.Equal(t, want, Text(fixtures()))
}

func TestAnalyze(t *testing.T) {
	p := Analyze(fixtures())

	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 2, p.ByHour[9])
	assert.Equal(t, 1, p.ByHour[14])
	assert.InDelta(t, 1.6/3, p.Importance.Mean, 1e-9)
	assert.Equal(t, 1, p.Importance.High)
	assert.Equal(t, 1, p.Importance.Mid)
	assert.Equal(t, 1, p.Importance.Low)
	assert.Equal(t, 11, p.Access.Total)
	assert.Equal(t, 1, p.Access.Never)

	require.Len(t, p.TopAccessed, 2)
	assert.Equal(t, int64(2), p.TopAccessed[0].ID)
	assert.Equal(t, 7, p.TopAccessed[0].AccessCount)
	assert.Equal(t, int64(3), p.TopAccessed[1].ID)
}

func TestAnalyzeEmpty(t *testing.T) {
	p := Analyze(nil)
	assert.Equal(t, 0, p.Total)
	assert.Empty(t, p.TopAccessed)
}

func TestAnalyzeCapsTopAccessed(t *testing.T) {
	var mems []model.Memory
	for i := int64(1); i <= 8; i++ {
		mems = append(mems, model.Memory{ID: i, Type: model.TypeSemantic, AccessCount: int(i), CreatedAt: t0})
	}
	p := Analyze(mems)
	require.Len(t, p.TopAccessed, TopAccessed)
	assert.Equal(t, int64(8), p.TopAccessed[0].ID)
}

func TestWriteJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ViewMinimal, FormatJSON, fixtures()))
	var fromJSON []Minimal
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Len(t, fromJSON, 3)

	buf.Reset()
	require.NoError(t, Write(&buf, ViewPatterns, FormatYAML, fixtures()))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, 3, fromYAML["total"])

	buf.Reset()
	require.NoError(t, Write(&buf, ViewText, FormatYAML, fixtures()))
	assert.Contains(t, buf.String(), "[1] episodic")
}

func TestUnknownViewAndFormat(t *testing.T) {
	_, err := Build(View("xml"), nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	err = Write(&bytes.Buffer{}, ViewMinimal, Format("toml"), nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestBuildDoesNotReorderInput(t *testing.T) {
	in := fixtures()
	_, err := Build(ViewMinimal, in)
	require.NoError(t, err)
	assert.Equal(t, int64(3), in[0].ID)
}
