package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/capture"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/session"
)

func testArtifact(n int) *session.Artifact {
	return &session.Artifact{
		ID:     "test-artifact",
		Source: capture.KindMicrophone,
		Data:   make([]byte, n),
	}
}

func TestUploadWireFormat(t *testing.T) {
	var gotMethod, gotField, gotFilename, gotPartType string
	var gotBytes int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not multipart: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		for field, headers := range r.MultipartForm.File {
			gotField = field
			gotFilename = headers[0].Filename
			gotPartType = headers[0].Header.Get("Content-Type")
			f, _ := headers[0].Open()
			data, _ := io.ReadAll(f)
			f.Close()
			gotBytes = len(data)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "success", "summary": "short recap"})
	}))
	defer srv.Close()

	summary, err := NewClient(srv.URL).Upload(context.Background(), testArtifact(4096))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if summary != "short recap" {
		t.Errorf("summary = %q", summary)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s", gotMethod)
	}
	if gotField != "file" {
		t.Errorf("field = %q, want file", gotField)
	}
	if gotFilename != "meeting.webm" {
		t.Errorf("filename = %q, want meeting.webm", gotFilename)
	}
	if gotPartType != "audio/webm" {
		t.Errorf("part content-type = %q, want audio/webm", gotPartType)
	}
	if gotBytes != 4096 {
		t.Errorf("payload = %d bytes, want 4096", gotBytes)
	}
}

func TestUploadMissingSummaryField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	summary, err := NewClient(srv.URL).Upload(context.Background(), testArtifact(16))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if summary != NoSummaryText {
		t.Errorf("summary = %q, want %q", summary, NoSummaryText)
	}
}

func TestUploadMalformedBodyTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer srv.Close()

	summary, err := NewClient(srv.URL).Upload(context.Background(), testArtifact(16))
	if err != nil {
		t.Fatalf("a malformed 2xx body is not an upload failure: %v", err)
	}
	if summary != NoSummaryText {
		t.Errorf("summary = %q, want %q", summary, NoSummaryText)
	}
}

func TestUploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Upload(context.Background(), testArtifact(16))
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("error type = %T", err)
	}
	if upErr.Kind != ServerError || upErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("err = %+v", upErr)
	}
}

func TestUploadTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening

	_, err := NewClient(srv.URL).Upload(context.Background(), testArtifact(16))
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("error type = %T", err)
	}
	if upErr.Kind != TransportError {
		t.Errorf("kind = %v, want TransportError", upErr.Kind)
	}
	if upErr.Unwrap() == nil {
		t.Error("transport error must carry its cause")
	}
}

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %s, want /chat", r.URL.Path)
		}
		var req struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Question != "who owns the followups?" {
			t.Errorf("question = %q", req.Question)
		}
		json.NewEncoder(w).Encode(map[string]string{"answer": "Dana does."})
	}))
	defer srv.Close()

	answer, err := NewClient(srv.URL).Ask(context.Background(), "who owns the followups?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "Dana does." {
		t.Errorf("answer = %q", answer)
	}
}

func TestAskEmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	answer, err := NewClient(srv.URL).Ask(context.Background(), "anything?")
	if err != nil {
		t.Fatal(err)
	}
	if answer != NoAnswerText {
		t.Errorf("answer = %q, want %q", answer, NoAnswerText)
	}
}

func TestNewClientNormalizesBaseURL(t *testing.T) {
	c := NewClient("http://example.test:5000/")
	if c.Endpoint() != "http://example.test:5000/upload" {
		t.Errorf("endpoint = %q", c.Endpoint())
	}
}
