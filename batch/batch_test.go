package batch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoseal/cryptoseal/batch"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunEncryptsAllItemsSequentially(t *testing.T) {
	dir := t.TempDir()
	a := writeTempFile(t, dir, "a.txt", "alpha")
	b := writeTempFile(t, dir, "b.txt", "bravo")

	items := []batch.BatchItem{
		{InputPath: a, OutputPath: filepath.Join(dir, "a.vault")},
		{InputPath: b, OutputPath: filepath.Join(dir, "b.vault")},
	}

	report, err := batch.Run(context.Background(), items, []byte("pw"), batch.BatchOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, report.Succeeded)
	assert.EqualValues(t, 0, report.Failed)
	require.Len(t, report.Items, 2)
	for _, rec := range report.Items {
		assert.True(t, rec.Succeeded)
		assert.NotEmpty(t, rec.ID)
	}
}

func TestRunCapturesPerItemFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeTempFile(t, dir, "a.txt", "alpha")

	items := []batch.BatchItem{
		{InputPath: a, OutputPath: filepath.Join(dir, "a.vault")},
		{InputPath: filepath.Join(dir, "does-not-exist.txt"), OutputPath: filepath.Join(dir, "missing.vault")},
	}

	report, err := batch.Run(context.Background(), items, []byte("pw"), batch.BatchOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.Succeeded)
	assert.EqualValues(t, 1, report.Failed)
	assert.True(t, report.Items[0].Succeeded)
	assert.False(t, report.Items[1].Succeeded)
	assert.NotEmpty(t, report.Items[1].Error)
}

func TestRunParallel(t *testing.T) {
	dir := t.TempDir()
	items := make([]batch.BatchItem, 5)
	for i := range items {
		name := writeTempFile(t, dir, filepathName(i), "payload")
		items[i] = batch.BatchItem{InputPath: name, OutputPath: name + ".vault"}
	}

	report, err := batch.Run(context.Background(), items, []byte("pw"), batch.BatchOptions{Parallelism: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 5, report.Succeeded)
	assert.EqualValues(t, 0, report.Failed)
}

func filepathName(i int) string {
	return "file" + string(rune('a'+i)) + ".txt"
}

func TestBatchReportPackUnpackRoundTrip(t *testing.T) {
	report := &batch.BatchReport{
		Succeeded: 1,
		Failed:    1,
		Items: []batch.ItemRecord{
			{ID: "one", InputPath: "in1", OutputPath: "out1", Succeeded: true, OriginalSize: 10, BytesWritten: 20},
			{ID: "two", InputPath: "in2", OutputPath: "out2", Succeeded: false, Error: "boom"},
		},
	}

	packed, err := report.Pack()
	require.NoError(t, err)
	assert.NotEmpty(t, packed)

	got, err := batch.UnpackBatchReport(bytes.NewReader([]byte(packed)))
	require.NoError(t, err)
	assert.Equal(t, report.Succeeded, got.Succeeded)
	assert.Equal(t, report.Failed, got.Failed)
	require.Len(t, got.Items, 2)
	assert.Equal(t, report.Items[0], got.Items[0])
	assert.Equal(t, report.Items[1], got.Items[1])
}
