// Package testutil holds helpers shared by backend client tests.
package testutil

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// NewVCRRecorder opens the named cassette under testdata/fixtures, replaying
// by default. Set VCR_MODE=record to re-record against live providers;
// scrub real API keys out of the cassette before committing it.
func NewVCRRecorder(t *testing.T, cassetteName string) (*recorder.Recorder, func()) {
	t.Helper()

	mode := recorder.ModeReplaying
	if os.Getenv("VCR_MODE") == "record" {
		mode = recorder.ModeRecording
	}

	r, err := recorder.NewAsMode(filepath.Join("testdata", "fixtures", cassetteName), mode, nil)
	if err != nil {
		t.Fatalf("vcr recorder: %v", err)
	}

	// Request bodies carry per-run ids; match on method and URL only.
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		return req.Method == i.Method && req.URL.String() == i.URL
	})

	return r, func() {
		if err := r.Stop(); err != nil {
			t.Errorf("stop vcr recorder: %v", err)
		}
	}
}

// VCRHTTPClient wraps the recorder in an http.Client a backend client can
// take as its transport.
func VCRHTTPClient(r *recorder.Recorder) *http.Client {
	return &http.Client{Transport: r}
}
