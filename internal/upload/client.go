package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/samartsevigor/change-analyzer/internal/ignore"
	logger "github.com/sirupsen/logrus"
)

// ErrRejected indicates the service answered with a non-2xx status
var ErrRejected = errors.New("upload rejected")

// Multipart field names expected by the scope service.
const (
	ArchiveField = "archive"
	ReportField  = "report"
)

// maxExcerpt bounds the response body quoted in errors.
const maxExcerpt = 512

// Response describes an accepted upload.
type Response struct {
	RunID  string
	Status int
	Body   []byte
}

// Client posts analysis results to the scope service. Requests are not
// retried.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewClient creates a client for endpoint. An empty token sends no
// Authorization header.
func NewClient(endpoint, token string, timeout time.Duration) *Client {
	hc := cleanhttp.DefaultClient()
	hc.Timeout = timeout
	return &Client{endpoint: endpoint, token: token, http: hc}
}

// Upload sends the zipped project and the JSON report as one
// multipart/form-data request tagged with a fresh run id.
func (c *Client) Upload(ctx context.Context, archive io.Reader, report []byte) (*Response, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := writePart(mw, ArchiveField, "project.zip", "application/zip", archive); err != nil {
		return nil, err
	}
	if err := writePart(mw, ReportField, "changed_declarations.json", "application/json", bytes.NewReader(report)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	runID := uuid.NewString()
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Run-ID", runID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger.Infof("[upload] sending %d bytes to %s (run %s)", body.Len(), c.endpoint, runID)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, excerpt(respBody))
	}

	logger.Infof("[upload] accepted with status %d (run %s)", resp.StatusCode, runID)
	return &Response{RunID: runID, Status: resp.StatusCode, Body: respBody}, nil
}

func writePart(mw *multipart.Writer, field, filename, contentType string, r io.Reader) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("failed to write %s part: %w", field, err)
	}
	return nil
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxExcerpt {
		s = s[:maxExcerpt] + "..."
	}
	return s
}

// UploadProject archives projectPath, honouring matcher and exclude, and
// uploads it together with report.
func (c *Client) UploadProject(ctx context.Context, projectPath string, matcher *ignore.Matcher, report []byte, exclude ...string) (*Response, error) {
	var archive bytes.Buffer
	stats, err := WriteArchive(&archive, projectPath, matcher, exclude...)
	if err != nil {
		return nil, err
	}
	logger.Infof("[upload] archived %d files (%d bytes)", stats.Files, archive.Len())
	return c.Upload(ctx, &archive, report)
}
