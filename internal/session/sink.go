package session

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cvsift/cvsift/internal/screening"
)

// wsSink forwards job progress to one websocket session. It serializes
// writes (the connection permits a single writer) and turns every emission
// into a no-op once the session is gone, so a long-running job never fails
// on delivery.
type wsSink struct {
	conn   *websocket.Conn
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

func newSink(conn *websocket.Conn, log *zap.Logger) *wsSink {
	return &wsSink{conn: conn, logger: log}
}

func (s *wsSink) Update(u screening.Update) {
	s.send(eventProcessingUpdate, updatePayload{Status: u.Status, Report: u.Report})
}

func (s *wsSink) Complete(c screening.Completion) {
	rows := c.Rows
	if rows == nil {
		// An empty batch still serializes finalData as a list, not null.
		rows = []screening.RowResult{}
	}
	s.send(eventProcessingComplete, completePayload{FinalData: rows, Report: c.Message})
}

func (s *wsSink) Fail(f screening.Failure) {
	payload := errorPayload{Message: f.Message}
	if f.Err != nil {
		payload.Error = f.Err.Error()
	}
	s.send(eventProcessingError, payload)
}

// close stops all further emissions. Safe to call more than once.
func (s *wsSink) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *wsSink) send(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if err := s.conn.WriteJSON(envelope{Event: event, Data: data}); err != nil {
		// A dead connection stays dead. Mark it so the rest of the job's
		// emissions skip the write instead of erroring one by one.
		s.logger.Debug("session write failed, dropping further events", zap.Error(err))
		s.closed = true
	}
}
