package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/mzaiser/dictee/internal/practice"
	"github.com/mzaiser/dictee/pkg/provider/sentences"
)

// Live session wire protocol. The client drives the session with "next" and
// "attempt" commands; the server answers each command with exactly one
// "sentence", "result" or "error" message. Unknown command types get an
// "error" reply but keep the session open.

type liveCommand struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
	Level    string `json:"level,omitempty"`
	Input    string `json:"input,omitempty"`
	Expected string `json:"expected,omitempty"`
}

type liveMessage struct {
	Type     string                  `json:"type"`
	Sentence *sentences.Sentence     `json:"sentence,omitempty"`
	Result   *practice.GradedAttempt `json:"result,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// handleLive upgrades the connection and runs a dictation session until the
// client disconnects. Each session remembers the last sentence served, so an
// "attempt" without an explicit expected text grades against it.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("live session upgrade failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	s.metrics.ActiveLiveSessions.Add(ctx, 1)
	defer s.metrics.ActiveLiveSessions.Add(context.WithoutCancel(ctx), -1)

	s.logger.Debug("live session opened", "remote", r.RemoteAddr)

	sess := &liveSession{server: s, conn: conn, logger: s.logger}
	sess.run(ctx)

	conn.Close(websocket.StatusNormalClosure, "session closed")
	s.logger.Debug("live session closed", "remote", r.RemoteAddr)
}

type liveSession struct {
	server *Server
	conn   *websocket.Conn
	logger *slog.Logger

	// current is the last sentence served over this session.
	current *sentences.Sentence
}

func (ls *liveSession) run(ctx context.Context) {
	for {
		_, data, err := ls.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return
			}
			ls.logger.Debug("live session read failed", "error", err)
			return
		}

		var cmd liveCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			if !ls.send(ctx, liveMessage{Type: "error", Error: "malformed command: " + err.Error()}) {
				return
			}
			continue
		}

		if !ls.handle(ctx, cmd) {
			return
		}
	}
}

// handle dispatches one command. Returns false when the session should end.
func (ls *liveSession) handle(ctx context.Context, cmd liveCommand) bool {
	switch cmd.Type {
	case "next":
		sent, err := ls.server.svc.NextSentence(ctx, sentences.Filter{
			Language: cmd.Language,
			Level:    cmd.Level,
		})
		switch {
		case errors.Is(err, practice.ErrNoSource):
			return ls.send(ctx, liveMessage{Type: "error", Error: "no sentence source configured"})
		case errors.Is(err, sentences.ErrExhausted):
			return ls.send(ctx, liveMessage{Type: "error", Error: "no more sentences for this filter"})
		case err != nil:
			ls.logger.Error("live sentence fetch failed", "error", err)
			return ls.send(ctx, liveMessage{Type: "error", Error: "sentence source unavailable"})
		}
		ls.current = sent
		return ls.send(ctx, liveMessage{Type: "sentence", Sentence: sent})

	case "attempt":
		req := practice.AttemptRequest{Input: cmd.Input, Expected: cmd.Expected}
		if req.Expected == "" {
			if ls.current == nil {
				return ls.send(ctx, liveMessage{Type: "error", Error: "no sentence in play, request one with \"next\" or set expected"})
			}
			req.Expected = ls.current.Text
			req.SentenceID = ls.current.ID
			req.Language = ls.current.Language
		}
		graded := ls.server.svc.GradeAttempt(ctx, req)
		return ls.send(ctx, liveMessage{Type: "result", Result: &graded})

	default:
		return ls.send(ctx, liveMessage{Type: "error", Error: "unknown command type: " + cmd.Type})
	}
}

func (ls *liveSession) send(ctx context.Context, msg liveMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		ls.logger.Error("live message encoding failed", "error", err)
		return false
	}
	if err := ls.conn.Write(ctx, websocket.MessageText, data); err != nil {
		ls.logger.Debug("live session write failed", "error", err)
		return false
	}
	return true
}
