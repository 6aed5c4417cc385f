package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"codementor/internal/judge"
	"codementor/internal/participants"
	"codementor/internal/rooms"
	"codementor/internal/wshub"
)

// handleWS upgrades the connection and runs the session loop. Each
// connection is one participant; dropping the connection is an implicit
// leave.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Log.Warn().Err(err).Msg("websocket accept failed")
		return
	}

	client := &wshub.Client{
		ParticipantID: uuid.New().String(),
		Conn:          conn,
		Send:          make(chan []byte, 64),
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	s.readLoop(ctx, client)
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) readLoop(ctx context.Context, client *wshub.Client) {
	defer s.drop(client)

	for {
		_, data, err := client.Conn.Read(ctx)
		if err != nil {
			return
		}

		var msg wshub.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(client, wshub.ServerMessage{Type: "error", Detail: "malformed message"})
			continue
		}

		switch msg.Type {
		case "join":
			s.handleJoin(client, msg)
		case "edit":
			s.handleEdit(client, msg)
		case "eval":
			s.handleEval(ctx, client)
		case "leave":
			return
		default:
			s.send(client, wshub.ServerMessage{Type: "error", Detail: "unknown message type"})
		}
	}
}

func (s *Server) handleJoin(client *wshub.Client, msg wshub.ClientMessage) {
	if client.RoomID != "" {
		s.send(client, wshub.ServerMessage{Type: "error", Detail: "already joined"})
		return
	}
	if msg.Room == "" {
		s.send(client, wshub.ServerMessage{Type: "error", Detail: "room is required"})
		return
	}

	res, err := s.Rooms.Join(msg.Room, client.ParticipantID, msg.Role)
	if err != nil {
		detail := "join failed"
		if errors.Is(err, rooms.ErrUnknownExercise) {
			detail = "unknown exercise"
		} else {
			s.Log.Error().Err(err).Str("room", msg.Room).Msg("join failed")
		}
		s.send(client, wshub.ServerMessage{Type: "error", Room: msg.Room, Detail: detail})
		return
	}

	client.RoomID = msg.Room
	s.Hub.Register(client)

	s.send(client, wshub.ServerMessage{
		Type:          "role",
		Room:          msg.Room,
		Role:          string(res.Role),
		Text:          res.Room.Buffer(),
		ParticipantID: client.ParticipantID,
	})
}

func (s *Server) handleEdit(client *wshub.Client, msg wshub.ClientMessage) {
	if client.RoomID == "" {
		s.send(client, wshub.ServerMessage{Type: "error", Detail: "join a room first"})
		return
	}

	room := s.Rooms.Get(client.RoomID)
	if room == nil {
		s.send(client, wshub.ServerMessage{Type: "error", Room: client.RoomID, Detail: "room is gone"})
		return
	}
	if p := room.Participants.Get(client.ParticipantID); p != nil && p.Role == participants.RoleMentor {
		// Mentors are read-only in the reference client; an edit from one
		// means a misbehaving client, but the text is still accepted.
		s.Log.Debug().Str("room", client.RoomID).Str("participant", client.ParticipantID).Msg("edit from mentor")
	}

	s.Channel.SubmitEdit(client.RoomID, client.ParticipantID, msg.Text)
}

// handleEval snapshots the room buffer and judges it off the read loop, so
// a slow evaluation never stalls this connection's edits.
func (s *Server) handleEval(ctx context.Context, client *wshub.Client) {
	if client.RoomID == "" {
		s.send(client, wshub.ServerMessage{Type: "error", Detail: "join a room first"})
		return
	}

	room := s.Rooms.Get(client.RoomID)
	if room == nil {
		s.send(client, wshub.ServerMessage{Type: "error", Room: client.RoomID, Detail: "room is gone"})
		return
	}

	roomID := client.RoomID
	participantID := client.ParticipantID
	ex := room.Judge()
	source := room.Buffer()

	go func() {
		res, err := s.Judge.Evaluate(ctx, judge.Request{
			Source:     source,
			ParamNames: ex.ParamNames,
			Args:       ex.Args,
			Expected:   ex.Expected,
			Solution:   ex.Solution,
		})
		if err != nil {
			s.Log.Error().Err(err).Str("room", roomID).Msg("evaluation failed")
			s.Hub.SendTo(roomID, participantID, wshub.ServerMessage{Type: "error", Room: roomID, Detail: "evaluation failed"})
			return
		}

		if err := s.Exercises.RecordAttempt(roomID, participantID, string(res.Kind), res.Passed); err != nil {
			s.Log.Error().Err(err).Str("room", roomID).Msg("recording attempt failed")
		}

		s.Hub.SendTo(roomID, participantID, wshub.ServerMessage{Type: "verdict", Room: roomID, Verdict: &res})
	}()
}

// drop performs the leave sequence: cancel any pending debounce first so a
// stale edit cannot land after the membership change.
func (s *Server) drop(client *wshub.Client) {
	if client.RoomID == "" {
		return
	}
	s.Channel.Cancel(client.RoomID, client.ParticipantID)
	s.Rooms.Leave(client.RoomID, client.ParticipantID)
	s.Hub.Unregister(client.RoomID, client.ParticipantID)
	client.RoomID = ""
}

// send queues a message on the client's own channel. Only safe from the
// read loop goroutine; async work must go through Hub.SendTo.
func (s *Server) send(client *wshub.Client, msg wshub.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.Log.Error().Err(err).Msg("marshal reply")
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}
