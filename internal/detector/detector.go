// Package detector talks to the external face-detection server that turns an
// image into a 128-dimension facial descriptor. Model loading and warm-up are
// the server's concern; this client assumes an already-initialized endpoint.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/branch-greeter/internal/descriptor"
)

const defaultDetectorURL = "http://localhost:8100"

var (
	// ErrNoFace means the detector found no face in the image. Recoverable at
	// the caller boundary by prompting for a retry.
	ErrNoFace = errors.New("no face detected")

	// ErrDetectionFailed means the detector call itself failed (network,
	// timeout, server error). Not retried internally.
	ErrDetectionFailed = errors.New("face detection failed")
)

// Client computes facial descriptors using the detection server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a detector client. Timeout bounds every detect call; the
// detector is the only potentially slow collaborator in the recognition path.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// detectResponse represents the response from the detection server.
type detectResponse struct {
	Faces      int       `json:"faces"`
	Descriptor []float32 `json:"descriptor"`
	Dim        int       `json:"dim"`
	Model      string    `json:"model"`
}

// Detect posts the image and returns its facial descriptor.
// Returns ErrNoFace when the image contains no detectable face or the detector
// did not answer within the timeout; both resolve the same way, another
// capture. Everything else is wrapped in ErrDetectionFailed.
func (c *Client) Detect(ctx context.Context, imageData []byte) (descriptor.Descriptor, error) {
	resized, err := ResizeImage(imageData, maxDetectorEdge)
	if err != nil {
		return nil, fmt.Errorf("%w: preparing image: %v", ErrDetectionFailed, err)
	}

	body, err := c.postMultipartImage(ctx, "/detect", resized)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrDetectionFailed, err)
	}

	if resp.Faces == 0 || len(resp.Descriptor) == 0 {
		return nil, ErrNoFace
	}
	if resp.Dim != 0 && resp.Dim != len(resp.Descriptor) {
		return nil, fmt.Errorf("%w: descriptor length %d does not match dim %d",
			ErrDetectionFailed, len(resp.Descriptor), resp.Dim)
	}

	return descriptor.Descriptor(resp.Descriptor), nil
}

// isTimeout reports whether the request failed because the detector was too
// slow, either the per-client timeout or a caller deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// postMultipartImage constructs a multipart form with the image data and posts
// it to the given endpoint.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("%w: creating form file: %v", ErrDetectionFailed, err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("%w: writing image data: %v", ErrDetectionFailed, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing multipart writer: %v", ErrDetectionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrDetectionFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: detector timed out: %v", ErrNoFace, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrDetectionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: detector returned status %d: %s",
			ErrDetectionFailed, resp.StatusCode, string(body))
	}

	return body, nil
}
