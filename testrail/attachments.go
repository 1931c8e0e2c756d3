package testrail

import (
	"context"
	"fmt"
)

// AddAttachmentToRun uploads data as a file attached to a run.
func (c *Client) AddAttachmentToRun(ctx context.Context, runID int, data []byte, filename string) (*Attachment, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: attachment filename is required", ErrInvalidConfig)
	}

	var attachment Attachment
	if err := c.postMultipart(ctx, apiPath("add_attachment_to_run", runID), filename, data, &attachment); err != nil {
		return nil, err
	}

	c.logger.Info().
		Int("run_id", runID).
		Int("attachment_id", attachment.AttachmentID).
		Str("filename", filename).
		Int("bytes", len(data)).
		Msg("Uploaded attachment")

	return &attachment, nil
}
