package tools

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/afero"
)

type attachmentArgs struct {
	RunID    int    `mapstructure:"run_id" json:"run_id"`
	FilePath string `mapstructure:"file_path" json:"file_path"`
}

func (a attachmentArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.RunID, positiveID...),
		validation.Field(&a.FilePath, validation.Required),
	)
}

func (ts *Toolset) addAttachmentToRunTool() Tool {
	return Tool{
		Definition: mcp.NewTool("add_attachment_to_run",
			mcp.WithDescription(fmt.Sprintf("Add an attachment to a test run in TestRail. If the file_path points to a directory, it will be automatically zipped before uploading. Maximum upload size is %dMB.", ts.maxUploadBytes>>20)),
			mcp.WithNumber("run_id", mcp.Required(), mcp.Description("The ID of the test run to attach the file to")),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("The path to the file or directory to attach. Directories will be automatically zipped.")),
		),
		Handler: func(ctx context.Context, raw map[string]any) (any, error) {
			var args attachmentArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}

			data, filename, err := ts.loadAttachment(args.FilePath)
			if err != nil {
				return nil, err
			}

			ts.logger.Debug().
				Int("run_id", args.RunID).
				Str("path", args.FilePath).
				Str("filename", filename).
				Int("bytes", len(data)).
				Msg("Uploading attachment")

			attachment, err := ts.api.AddAttachmentToRun(ctx, args.RunID, data, filename)
			if err != nil {
				return nil, err
			}
			return attachment, nil
		},
	}
}

// loadAttachment reads a file, or zips a directory in memory, and returns
// the bytes with the upload filename.
func (ts *Toolset) loadAttachment(p string) ([]byte, string, error) {
	info, err := ts.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrFileNotFound, p)
		}
		return nil, "", fmt.Errorf("failed to stat %s: %w", p, err)
	}

	base := filepath.Base(filepath.Clean(p))

	if !info.IsDir() {
		if info.Size() > ts.maxUploadBytes {
			return nil, "", fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrUploadTooLarge, p, info.Size(), ts.maxUploadBytes)
		}
		data, err := afero.ReadFile(ts.fs, p)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", p, err)
		}
		return data, base, nil
	}

	data, err := ts.zipDir(p, base)
	if err != nil {
		return nil, "", err
	}
	return data, base + ".zip", nil
}

// zipDir archives root with every entry under prefix/. Reading stops as soon
// as the uncompressed total passes the upload limit.
func (ts *Toolset) zipDir(root, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var total int64

	err := afero.Walk(ts.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := path.Join(prefix, filepath.ToSlash(rel))

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = name

		if info.IsDir() {
			header.Name += "/"
			_, err := zw.CreateHeader(header)
			return err
		}

		total += info.Size()
		if total > ts.maxUploadBytes {
			return fmt.Errorf("%w: %s exceeds %d bytes", ErrUploadTooLarge, root, ts.maxUploadBytes)
		}

		header.Method = zip.Deflate
		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		f, err := ts.fs.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive %s: %w", root, err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	if int64(buf.Len()) > ts.maxUploadBytes {
		return nil, fmt.Errorf("%w: archive of %s is %d bytes", ErrUploadTooLarge, root, buf.Len())
	}

	return buf.Bytes(), nil
}
