package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cvsift/cvsift/internal/logger"
	"github.com/cvsift/cvsift/internal/screening"
)

// livenessBody answers plain HTTP requests on any path.
const livenessBody = "cvsift session server is running"

// Runner executes one screening job, reporting through the sink.
type Runner interface {
	Run(ctx context.Context, job screening.Job, sink screening.ProgressSink) (*screening.Report, error)
}

// Server owns websocket sessions and hands submitted jobs to the runner.
// Jobs are bound to the server lifecycle, not to their session: a client
// disconnect drops delivery, never the job.
type Server struct {
	lifecycle context.Context
	runner    Runner
	logger    *zap.Logger
	upgrader  websocket.Upgrader

	jobs sync.WaitGroup
}

// New builds a session server. ctx bounds every job started through it.
func New(ctx context.Context, runner Runner, log *zap.Logger) (*Server, error) {
	if runner == nil {
		return nil, errors.New("job runner is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		lifecycle: ctx,
		runner:    runner,
		logger:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Sessions are unauthenticated and clients connect from
			// arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// ServeHTTP upgrades websocket requests into sessions. Any other request
// gets the liveness acknowledgment.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, livenessBody)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request with an HTTP error.
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.serveSession(conn)
}

// Drain blocks until every job started by the server has finished.
func (s *Server) Drain() {
	s.jobs.Wait()
}

func (s *Server) serveSession(conn *websocket.Conn) {
	log := s.logger.With(zap.String(logger.FieldSession, uuid.NewString()))
	log.Info("session connected", zap.String("remote", conn.RemoteAddr().String()))

	sink := newSink(conn, log)
	defer func() {
		sink.close()
		conn.Close()
		log.Info("session disconnected")
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("session read failed", zap.Error(err))
			}
			return
		}
		s.dispatch(log, sink, frame)
	}
}

// dispatch routes one inbound frame. Unknown events are logged and dropped.
// An undecodable frame or payload answers with processingError and starts
// nothing.
func (s *Server) dispatch(log *zap.Logger, sink *wsSink, frame []byte) {
	var msg inbound
	if err := json.Unmarshal(frame, &msg); err != nil {
		log.Warn("undecodable frame", zap.Error(err))
		sink.Fail(screening.Failure{Message: "Invalid message.", Err: err})
		return
	}

	switch msg.Event {
	case eventStartProcessing:
		s.startJob(log, sink, msg.Data)
	default:
		log.Info("ignoring unknown event", zap.String("event", msg.Event))
	}
}

func (s *Server) startJob(log *zap.Logger, sink *wsSink, raw json.RawMessage) {
	req, err := decodeStartRequest(raw)
	if err != nil {
		log.Warn("rejecting malformed startProcessing payload", zap.Error(err))
		sink.Fail(screening.Failure{Message: "Invalid startProcessing payload.", Err: err})
		return
	}

	job := screening.Job{
		ID:             uuid.NewString(),
		Records:        req.records(),
		JobDescription: req.TxtData,
	}
	log.Info("job accepted",
		zap.String(logger.FieldJob, job.ID),
		zap.Int("rows", len(job.Records)),
	)

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		// Run reports its own failures through the sink.
		if _, err := s.runner.Run(s.lifecycle, job, sink); err != nil {
			log.Error("screening job failed", zap.String(logger.FieldJob, job.ID), zap.Error(err))
		}
	}()
}
