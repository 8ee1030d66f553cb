package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/events"
	"github.com/lalith-99/galynx/internal/identity"
)

const (
	pingInterval   = 30 * time.Second
	writeWait      = 10 * time.Second
	readLimitBytes = 64 << 10
	maxMissedPongs = 2
	replyQueueSize = 32
)

// session is one authenticated WebSocket connection. The reader goroutine
// decodes and executes commands in receipt order; the writer goroutine
// owns the connection for writes and drains both the workspace
// subscription and the session's reply queue.
type session struct {
	engine    *Engine
	conn      *websocket.Conn
	principal access.Principal
	sub       *events.Subscription
	replies   chan events.Event

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	missedPongs atomic.Int32
	logger      *zap.Logger
}

func newSession(engine *Engine, conn *websocket.Conn, principal access.Principal) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		engine:    engine,
		conn:      conn,
		principal: principal,
		sub:       engine.bus.Subscribe(principal.WorkspaceID),
		replies:   make(chan events.Event, replyQueueSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		logger: engine.logger.With(
			zap.String("user_id", principal.UserID.String()),
			zap.String("workspace_id", principal.WorkspaceID.String()),
		),
	}
}

// run services the connection until either side closes it. It blocks for
// the lifetime of the session.
func (s *session) run() {
	defer func() {
		s.close()
		s.engine.bus.Unsubscribe(s.sub)
	}()

	s.welcome()
	go s.writer()
	s.reader()
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.done)
		_ = s.conn.Close()
		s.engine.recorder.Record(s.principal.WorkspaceID, &s.principal.UserID, audit.ActionWSDisconnected, "session", nil, nil)
	})
}

func (s *session) welcome() {
	s.reply(events.Event{
		Type:        events.TypeWelcome,
		WorkspaceID: s.principal.WorkspaceID,
		ServerTS:    identity.NowMS(),
		Payload: map[string]any{
			"user_id": s.principal.UserID,
			"role":    s.principal.Role,
		},
	})
}

func (s *session) reader() {
	s.conn.SetReadLimit(readLimitBytes)
	s.conn.SetPongHandler(func(string) error {
		s.missedPongs.Store(0)
		return nil
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("session read failed", zap.Error(err))
			}
			return
		}
		s.handle(data)
	}
}

// handle processes one inbound frame. Every frame yields exactly one ACK
// or ERROR; failures never close the socket.
func (s *session) handle(data []byte) {
	var env commandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.sendError(env, apperr.BadRequest("malformed command"))
		return
	}

	allowed, err := s.engine.limiter.Allow(s.ctx, "ws:command:"+s.principal.UserID.String(), commandsPerMinute)
	if err != nil {
		s.logger.Warn("command rate limit check failed", zap.Error(err))
		allowed = true
	}
	if !allowed {
		s.sendError(env, apperr.TooManyRequests("command rate limit exceeded"))
		return
	}

	clientMsgID, err := normalizeClientMsgID(env.ClientMsgID)
	if err != nil {
		s.sendError(env, err)
		return
	}
	env.ClientMsgID = clientMsgID

	if mutating(env.Command) && clientMsgID != "" {
		key := idempotencyKey{
			workspaceID: s.principal.WorkspaceID,
			userID:      s.principal.UserID,
			target:      commandTarget(env.Command, env.Payload),
			command:     env.Command,
			clientMsgID: clientMsgID,
		}
		if cached, ok := s.engine.idempotency.Get(key); ok {
			s.sendAck(env, cached, true)
			return
		}
		result, err := s.execute(s.ctx, env)
		if err != nil {
			s.sendError(env, err)
			return
		}
		s.engine.idempotency.Put(key, result)
		s.sendAck(env, result, false)
		return
	}

	result, err := s.execute(s.ctx, env)
	if err != nil {
		s.sendError(env, err)
		return
	}
	s.sendAck(env, result, false)
}

func (s *session) sendAck(env commandEnvelope, result any, deduped bool) {
	s.reply(events.Event{
		Type:          events.TypeAck,
		WorkspaceID:   s.principal.WorkspaceID,
		CorrelationID: env.ClientMsgID,
		ServerTS:      identity.NowMS(),
		Payload: ackPayload{
			Command:     env.Command,
			ClientMsgID: env.ClientMsgID,
			Deduped:     deduped,
			Result:      result,
		},
	})
}

func (s *session) sendError(env commandEnvelope, err error) {
	appErr := apperr.From(err)
	if appErr.Code == apperr.CodeInternal {
		s.logger.Error("command failed", zap.String("command", env.Command), zap.Error(err))
	}
	s.reply(events.Event{
		Type:          events.TypeError,
		WorkspaceID:   s.principal.WorkspaceID,
		CorrelationID: env.ClientMsgID,
		ServerTS:      identity.NowMS(),
		Payload: errorPayload{
			Command:     env.Command,
			ClientMsgID: env.ClientMsgID,
			Status:      apperr.HTTPStatus(appErr.Code),
			Error:       appErr.Code,
			Message:     appErr.Message,
		},
	})
}

// reply queues a frame for the writer. ACKs stay ordered because only the
// reader goroutine calls this.
func (s *session) reply(event events.Event) {
	select {
	case s.replies <- event:
	case <-s.done:
	}
}

func (s *session) writer() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.close()

	for {
		select {
		case event, ok := <-s.sub.C:
			if !ok {
				return
			}
			if !s.write(event) {
				return
			}
		case event := <-s.replies:
			if !s.write(event) {
				return
			}
		case <-ticker.C:
			if s.missedPongs.Load() >= maxMissedPongs {
				s.logger.Debug("closing unresponsive session")
				return
			}
			s.missedPongs.Add(1)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *session) write(event events.Event) bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(event); err != nil {
		s.logger.Debug("session write failed", zap.Error(err))
		return false
	}
	return true
}
