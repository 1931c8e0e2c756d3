package tools

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttachmentToolset(t *testing.T, opts ...Option) (*Toolset, *mockTestRailAPI, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	api := &mockTestRailAPI{}
	return New(api, append([]Option{WithFs(fs)}, opts...)...), api, fs
}

func TestAddAttachmentFile(t *testing.T) {
	ts, api, fs := newAttachmentToolset(t)
	require.NoError(t, afero.WriteFile(fs, "/reports/summary.txt", []byte("all green"), 0o644))

	out := callTool(t, ts, "add_attachment_to_run", map[string]any{
		"run_id":    float64(55),
		"file_path": "/reports/summary.txt",
	})

	assert.Equal(t, float64(7), out["attachment_id"])
	assert.Equal(t, "summary.txt", api.attachmentFilename)
	assert.Equal(t, []byte("all green"), api.attachmentData)
}

func TestAddAttachmentDirectory(t *testing.T) {
	ts, api, fs := newAttachmentToolset(t)
	require.NoError(t, afero.WriteFile(fs, "/out/screens/login.png", []byte("png-bytes"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/out/screens/nested/log.txt", []byte("log line"), 0o644))

	callTool(t, ts, "add_attachment_to_run", map[string]any{
		"run_id":    float64(55),
		"file_path": "/out/screens/",
	})

	assert.Equal(t, "screens.zip", api.attachmentFilename)

	zr, err := zip.NewReader(bytes.NewReader(api.attachmentData), int64(len(api.attachmentData)))
	require.NoError(t, err)

	contents := make(map[string]string)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		contents[f.Name] = string(data)
	}
	sort.Strings(names)

	assert.Equal(t, []string{"screens/", "screens/login.png", "screens/nested/", "screens/nested/log.txt"}, names)
	assert.Equal(t, "png-bytes", contents["screens/login.png"])
	assert.Equal(t, "log line", contents["screens/nested/log.txt"])
}

func TestAddAttachmentNotFound(t *testing.T) {
	ts, api, _ := newAttachmentToolset(t)

	text := callToolError(t, ts, "add_attachment_to_run", map[string]any{
		"run_id":    float64(55),
		"file_path": "/missing.log",
	})

	assert.Equal(t, "Error: File or directory not found: /missing.log", text)
	assert.Nil(t, api.attachmentData)
}

func TestAddAttachmentTooLarge(t *testing.T) {
	ts, api, fs := newAttachmentToolset(t, WithMaxUploadBytes(8))
	require.NoError(t, afero.WriteFile(fs, "/big.bin", bytes.Repeat([]byte("x"), 9), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/dir/a.bin", bytes.Repeat([]byte("x"), 5), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/dir/b.bin", bytes.Repeat([]byte("x"), 5), 0o644))

	text := callToolError(t, ts, "add_attachment_to_run", map[string]any{"run_id": float64(1), "file_path": "/big.bin"})
	assert.Contains(t, text, ErrUploadTooLarge.Error())

	text = callToolError(t, ts, "add_attachment_to_run", map[string]any{"run_id": float64(1), "file_path": "/dir"})
	assert.Contains(t, text, ErrUploadTooLarge.Error())

	assert.Nil(t, api.attachmentData)
}

func TestAddAttachmentDescribesLimit(t *testing.T) {
	ts, _, _ := newAttachmentToolset(t, WithMaxUploadBytes(10<<20))
	for _, tool := range ts.Tools() {
		if tool.Definition.Name == "add_attachment_to_run" {
			assert.Contains(t, tool.Definition.Description, "Maximum upload size is 10MB")
			return
		}
	}
	t.Fatal("add_attachment_to_run not registered")
}
