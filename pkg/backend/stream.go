package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"graphview/pkg/logging"
	"graphview/pkg/model"
)

// DeltaSink receives decoded delta batches
type DeltaSink interface {
	Enqueue(d model.Delta)
}

// StatusFunc reports stream state changes (connected, errors) so the UI
// can show a non-fatal banner
type StatusFunc func(state, message string)

// Stream consumes the backend's server-sent delta feed. Failures are
// surfaced through the status callback and end the stream; there is no
// automatic retry. Cancellation is advisory via the context.
type Stream struct {
	url    string
	sink   DeltaSink
	status StatusFunc
	http   *http.Client
}

// NewStream creates a delta feed consumer
func NewStream(url string, sink DeltaSink, status StatusFunc) *Stream {
	return &Stream{
		url:    url,
		sink:   sink,
		status: status,
		// No overall timeout: the feed is long-lived
		http: &http.Client{},
	}
}

// Run consumes the feed until the context is cancelled or the connection
// drops. The returned error is informational; stream failures are not
// fatal to the viewer.
func (s *Stream) Run(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.http.Do(req)
	if err != nil {
		s.report("feed_error", err.Error())
		return fmt.Errorf("feed connect failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.report("feed_error", "feed returned "+resp.Status)
		return fmt.Errorf("feed connect failed: backend returned %s", resp.Status)
	}

	s.report("feed_connected", "delta feed connected")
	logging.Info("delta feed connected", "url", s.url)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		// Blank line terminates one SSE event
		if line == "" {
			if data.Len() > 0 {
				s.dispatch(data.String())
				data.Reset()
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue // Heartbeat comment
		}
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			data.WriteString(strings.TrimPrefix(payload, " "))
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.report("feed_error", err.Error())
		return fmt.Errorf("feed read failed: %w", err)
	}

	s.report("feed_closed", "delta feed closed")
	return nil
}

// dispatch decodes one delta event and hands it to the sink. Malformed
// events are dropped with a diagnostic; the stream continues.
func (s *Stream) dispatch(payload string) {
	var d model.Delta
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		logging.Warn("dropped malformed delta event", "error", err)
		return
	}
	if d.Op == "" || d.Empty() {
		return
	}
	if d.BatchID == "" {
		d.BatchID = uuid.New().String()
	}
	d.ReceivedAt = time.Now()
	s.sink.Enqueue(d)
}

func (s *Stream) report(state, message string) {
	if s.status != nil {
		s.status(state, message)
	}
}
