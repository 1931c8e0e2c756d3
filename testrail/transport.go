package testrail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// pathPrefix is the routing prefix of every TestRail endpoint. It contains the
// literal '?', so query parameters are appended with '&'.
const pathPrefix = "/index.php?"

// attachmentField is the multipart field name TestRail reads uploads from.
const attachmentField = "attachment"

// apiPath builds "/index.php?/api/v2/<op>[/<id>...]".
func apiPath(op string, ids ...int) string {
	var b strings.Builder
	b.WriteString(pathPrefix)
	b.WriteString("/api/v2/")
	b.WriteString(op)
	for _, id := range ids {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// withQuery appends params to a path that already carries the '?' prefix.
func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "&" + params.Encode()
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

// postJSON performs a POST with a JSON body and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := c.postRaw(ctx, path, payload)
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

// postRaw performs a POST with a JSON body and returns the undecoded response.
func (c *Client) postRaw(ctx context.Context, path string, payload any) (responseBody, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return responseBody{}, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	return c.doRequest(ctx, http.MethodPost, path, reader, header)
}

// postMultipart uploads data as the single file field "attachment". The
// content type comes from the multipart writer, never application/json.
func (c *Client) postMultipart(ctx context.Context, path, filename string, data []byte, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(attachmentField, filename)
	if err != nil {
		return fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write multipart field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.doRequest(ctx, http.MethodPost, path, &buf, header)
	if err != nil {
		return err
	}
	return decodeInto(body, out)
}

// responseBody pairs a raw body with the response it came from so decoding
// failures can report status and raw text.
type responseBody struct {
	resp *http.Response
	data []byte
}

// doRequest performs an HTTP request with authentication and normalizes
// every failure into *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, header http.Header) (responseBody, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return responseBody{}, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.username, c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("method", method).
			Str("path", path).
			Msg("TestRail request failed without response")
		return responseBody{}, newNoResponseError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return responseBody{}, newNoResponseError(fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("TestRail request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseBody{}, newStatusError(resp, data)
	}

	return responseBody{resp: resp, data: data}, nil
}

// decodeInto unmarshals a successful body. A body that is not JSON becomes an
// *APIError carrying the raw text.
func decodeInto(body responseBody, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body.data, out); err != nil {
		return newMalformedError(body.resp, body.data, err)
	}
	return nil
}
