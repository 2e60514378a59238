package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/curator/internal/fsops"
)

type testDoc struct {
	Version int      `json:"version"`
	Items   []string `json:"items"`
}

func emptyDoc() testDoc {
	return testDoc{Version: 1}
}

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "doc.json")
}

func TestRead(t *testing.T) {
	t.Run("absent file returns default", func(t *testing.T) {
		fs := fsops.NewMemFS()
		doc := Read(fs, testPath(t), emptyDoc)
		assert.Equal(t, emptyDoc(), doc)
	})

	t.Run("round trip", func(t *testing.T) {
		fs := fsops.NewMemFS()
		path := testPath(t)

		want := testDoc{Version: 1, Items: []string{"a", "b"}}
		require.NoError(t, Write(fs, path, want))

		got := Read(fs, path, emptyDoc)
		assert.Equal(t, want, got)
	})

	t.Run("corrupt file is quarantined and default substituted", func(t *testing.T) {
		fs := fsops.NewMemFS()
		path := testPath(t)
		fs.AddFile(path, []byte("{not json"))

		var warned []string
		oldWarn := Warn
		Warn = func(format string, args ...interface{}) {
			warned = append(warned, format)
		}
		defer func() { Warn = oldWarn }()

		doc := Read(fs, path, emptyDoc)
		assert.Equal(t, emptyDoc(), doc)
		require.Len(t, warned, 1)
		assert.True(t, strings.Contains(warned[0], "invalid JSON"))
	})
}

func TestUpdate(t *testing.T) {
	t.Run("read modify write", func(t *testing.T) {
		fs := fsops.NewMemFS()
		path := testPath(t)
		require.NoError(t, Write(fs, path, testDoc{Version: 1, Items: []string{"a"}}))

		updated, err := Update(fs, path, emptyDoc, func(doc testDoc) (testDoc, error) {
			doc.Items = append(doc.Items, "b")
			return doc, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, updated.Items)

		got := Read(fs, path, emptyDoc)
		assert.Equal(t, updated, got)
	})

	t.Run("transform starts from default when absent", func(t *testing.T) {
		fs := fsops.NewMemFS()
		path := testPath(t)

		updated, err := Update(fs, path, emptyDoc, func(doc testDoc) (testDoc, error) {
			doc.Items = append(doc.Items, "first")
			return doc, nil
		})
		require.NoError(t, err)
		assert.Equal(t, testDoc{Version: 1, Items: []string{"first"}}, updated)
	})

	t.Run("transform error leaves document untouched", func(t *testing.T) {
		fs := fsops.NewMemFS()
		path := testPath(t)
		require.NoError(t, Write(fs, path, testDoc{Version: 1, Items: []string{"a"}}))

		_, err := Update(fs, path, emptyDoc, func(doc testDoc) (testDoc, error) {
			return doc, assert.AnError
		})
		require.Error(t, err)

		got := Read(fs, path, emptyDoc)
		assert.Equal(t, []string{"a"}, got.Items)
	})
}

func TestLockPath(t *testing.T) {
	assert.Equal(t, "/data/doc.json.lck", LockPath("/data/doc.json"))
}
