package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/log"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/session"
)

// Wire convention of the summarizer backend: one multipart field
// named "file", fixed filename, webm MIME type.
const (
	fieldName    = "file"
	fileName     = "meeting.webm"
	fileMIMEType = "audio/webm"

	// NoSummaryText is shown when a successful response carries no
	// usable summary field.
	NoSummaryText = "No summary available"
	// NoAnswerText is the chat equivalent.
	NoAnswerText = "No answer available"
)

type ErrorKind int

const (
	// ServerError is a non-2xx response.
	ServerError ErrorKind = iota
	// TransportError means no response arrived at all.
	TransportError
)

type Error struct {
	Kind       ErrorKind
	StatusCode int // set for ServerError
	Cause      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ServerError:
		return fmt.Sprintf("upload: server returned %d", e.StatusCode)
	default:
		return fmt.Sprintf("upload: transport: %v", e.Cause)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Client talks to the transcription/summarization backend.
type Client struct {
	http      *TracedClient
	uploadURL string
	chatURL   string
}

func NewClient(baseURL string) *Client {
	base := strings.TrimRight(baseURL, "/")
	return &Client{
		http:      NewTracedClient(),
		uploadURL: base + "/upload",
		chatURL:   base + "/chat",
	}
}

func (c *Client) Endpoint() string { return c.uploadURL }

// WarmUp pre-establishes the connection in the background.
func (c *Client) WarmUp() {
	go c.http.Warm(c.uploadURL)
}

// Upload sends the artifact as one multipart POST and returns the
// summary text. A 2xx response whose body is malformed or lacks a
// summary field is tolerated and mapped to NoSummaryText. There is no
// client-side timeout; latency is bounded only by the backend.
func (c *Client) Upload(ctx context.Context, artifact *session.Artifact) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, fileName))
	header.Set("Content-Type", fileMIMEType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return "", err
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Kind: TransportError, Cause: err}
	}

	m := resp.Metrics
	log.UploadMetrics(log.Metrics{
		AudioLengthS: artifact.DurationSeconds(),
		ArtifactKB:   float64(len(artifact.Data)) / 1024,
		DNSMs:        float64(m.DNS.Milliseconds()),
		TLSMs:        float64(m.TLS.Milliseconds()),
		TTFBMs:       float64(m.TTFB.Milliseconds()),
		TotalMs:      float64(m.Sum().Milliseconds()),
	}, string(artifact.Source), c.uploadURL, resp.StatusCode, m.ConnReused, m.TLSProtocol)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Kind: ServerError, StatusCode: resp.StatusCode}
	}

	var payload struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		log.Warnf("upload response is not valid JSON: %v", err)
	}
	if payload.Summary == "" {
		return NoSummaryText, nil
	}
	return payload.Summary, nil
}

// Ask submits a follow-up question about the last uploaded meeting and
// returns the backend's answer. Same error taxonomy as Upload.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	reqBody, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Kind: TransportError, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Kind: ServerError, StatusCode: resp.StatusCode}
	}

	var payload struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		log.Warnf("chat response is not valid JSON: %v", err)
	}
	if payload.Answer == "" {
		return NoAnswerText, nil
	}
	return payload.Answer, nil
}
