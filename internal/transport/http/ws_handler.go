package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizarena/internal/app"
	"quizarena/internal/scoring"
)

// WSHandler runs live quiz attempts over a websocket: answers and navigation
// come in, state, countdown ticks, and the graded result go out.
type WSHandler struct {
	attempts *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(attempts *app.AttemptService) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option int `json:"option"`
}

type navigatePayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type startedPayload struct {
	Quiz     participantQuiz `json:"quiz"`
	Snapshot app.Snapshot    `json:"snapshot"`
}

type completedPayload struct {
	Snapshot app.Snapshot    `json:"snapshot"`
	Result   *scoring.Result `json:"result,omitempty"`
	Forced   bool            `json:"forced"`
}

// ServeWS upgrades the request and binds the connection to one attempt,
// identified by quizId and userId query parameters. A second connection for
// the same pair shares the live attempt rather than resetting it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	attempt, err := h.attempts.Start(r.Context(), quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	events, cancel := attempt.Subscribe()
	defer h.attempts.Release(quizID, userID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				msg := eventMessage(ev)
				select {
				case send <- msg:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
				if ev.Kind == app.EventCompleted {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{
		Quiz:     sanitizeQuiz(attempt.Quiz()),
		Snapshot: attempt.Snapshot(),
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, quizID, userID, inbound); err != nil {
			select {
			case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}:
			case <-eventsDone:
			}
		}
		select {
		case <-attempt.Done():
			// Drain remaining events, then stop reading.
			<-eventsDone
			close(closeSignals)
			close(send)
			<-writerDone
			return
		default:
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, quizID, userID string, inbound inboundMessage) error {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return h.attempts.Answer(quizID, userID, payload.Option)
	case "navigate":
		var payload navigatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return h.attempts.NavigateTo(quizID, userID, payload.Index)
	case "next":
		return h.attempts.Next(quizID, userID)
	case "previous":
		return h.attempts.Previous(quizID, userID)
	case "submit":
		_, _, err := h.attempts.Submit(r.Context(), quizID, userID)
		return err
	default:
		return errUnsupportedType
	}
}

func eventMessage(ev app.Event) outboundMessage[any] {
	switch ev.Kind {
	case app.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: ev.Snapshot}
	case app.EventCompleted:
		return outboundMessage[any]{Type: "completed", Payload: completedPayload{
			Snapshot: ev.Snapshot,
			Result:   ev.Result,
			Forced:   ev.Forced,
		}}
	default:
		return outboundMessage[any]{Type: "state", Payload: ev.Snapshot}
	}
}

type wsError string

func (e wsError) Error() string { return string(e) }

const (
	errInvalidPayload  wsError = "invalid payload"
	errUnsupportedType wsError = "unsupported message type"
)
