package reconlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testRun() Run {
	return Run{
		ID:          uuid.MustParse("6f1c1f0e-2f5b-4c4e-9a53-0d2c7b0c9a11"),
		Timestamp:   testTime,
		Statement:   "chase_checking.csv",
		AccountID:   1010,
		Summary:     model.Summary{Accepted: 4, Review: 1, UnmatchedTransactions: 1, UnmatchedEntries: 2},
		Fingerprint: "abc123",
		CommitHash:  "def4567",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testRun()))

	runs, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "chase_checking.csv", runs[0].Statement)

	data, err := os.ReadFile(filepath.Join(dir, Path()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), strings.Join(Header, ",")+"\n"))
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testRun()))

	second := testRun()
	second.ID = uuid.New()
	second.Statement = "savings.xlsx"
	require.NoError(t, Append(dir, second))

	runs, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "chase_checking.csv", runs[0].Statement)
	assert.Equal(t, "savings.xlsx", runs[1].Statement)
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testRun()
	require.NoError(t, Append(dir, original))

	runs, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, original.ID, got.ID)
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, original.AccountID, got.AccountID)
	assert.Equal(t, original.Fingerprint, got.Fingerprint)
	assert.Equal(t, original.CommitHash, got.CommitHash)
	assert.Equal(t, 4, got.Summary.Accepted)
	assert.Equal(t, 1, got.Summary.Review)
	assert.Equal(t, 1, got.Summary.UnmatchedTransactions)
	assert.Equal(t, 2, got.Summary.UnmatchedEntries)
}

func TestRead_NoFile(t *testing.T) {
	runs, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestUnmarshalRun_Errors(t *testing.T) {
	good := MarshalRun(testRun())

	_, err := UnmarshalRun(good[:3])
	assert.ErrorContains(t, err, "expected 10 fields")

	bad := append([]string(nil), good...)
	bad[colRunID] = "not-a-uuid"
	_, err = UnmarshalRun(bad)
	assert.ErrorContains(t, err, "run id")

	bad = append([]string(nil), good...)
	bad[colReview] = "many"
	_, err = UnmarshalRun(bad)
	assert.ErrorContains(t, err, "review")
}

func TestNewRun(t *testing.T) {
	res := &model.ReconciliationResult{
		Accepted: []model.MatchCandidate{{Confidence: 1, Reason: model.ReasonExact}},
	}
	r := NewRun("stmt.csv", 1010, res, testTime.Add(123*time.Millisecond))

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, testTime, r.Timestamp)
	assert.Equal(t, 1, r.Summary.Accepted)
	assert.Equal(t, res.Fingerprint(), r.Fingerprint)
	assert.Empty(t, r.CommitHash)

	other := NewRun("stmt.csv", 1010, res, testTime)
	assert.NotEqual(t, r.ID, other.ID)
	assert.Equal(t, r.Fingerprint, other.Fingerprint)
}

func TestLast(t *testing.T) {
	a := testRun()
	b := testRun()
	b.Fingerprint = "newer"
	c := testRun()
	c.Statement = "other.csv"

	got, ok := Last([]Run{a, b, c}, "chase_checking.csv")
	require.True(t, ok)
	assert.Equal(t, "newer", got.Fingerprint)

	_, ok = Last([]Run{a}, "missing.csv")
	assert.False(t, ok)
}
