package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/domain"
	"persona-quiz-service/internal/infra/memory"
)

type WSHandler struct {
	service  *app.QuizService
	sessions *memory.SessionStore
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, sessions *memory.SessionStore) *WSHandler {
	return &WSHandler{
		service:  service,
		sessions: sessions,
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
	QuestionID  string `json:"questionId"`
	OptionIndex int    `json:"optionIndex"`
}

type skipPayload struct {
	QuestionID string `json:"questionId"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type submitPayload struct {
	Email string `json:"email"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type sessionPayload struct {
	State           string `json:"state"`
	QuizTitle       string `json:"quizTitle"`
	QuestionCount   int    `json:"questionCount"`
	CurrentQuestion int    `json:"currentQuestion"`
}

type progressPayload struct {
	State           string `json:"state"`
	CurrentQuestion int    `json:"currentQuestion"`
	SaveFailed      bool   `json:"saveFailed,omitempty"`
}

type resultPayload struct {
	Result          string                  `json:"result"`
	Recommendations []domain.Recommendation `json:"recommendations,omitempty"`
	Finalized       bool                    `json:"finalized"`
}

// ServeWS upgrades HTTP requests to websockets and drives a quiz session
// through answer/skip/goto/submit messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	version := r.URL.Query().Get("version")
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

	sessionKey := userID + "|" + quizID
	session, err := h.sessions.GetOrCreate(sessionKey, func() (*app.Session, error) {
		return h.service.OpenSession(r.Context(), userID, quizID, version)
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	if session.State() == app.StateLoading {
		if err := session.Start(r.Context()); err != nil {
			send <- errMsg(err)
		}
	}

	def := session.Definition()
	send <- outboundMessage[any]{Type: "session", Payload: sessionPayload{
		State:           session.State().String(),
		QuizTitle:       def.Title,
		QuestionCount:   len(def.Questions),
		CurrentQuestion: session.CurrentQuestion(),
	}}
	if result, ok := session.Result(); ok {
		send <- h.resultMsg(r.Context(), session, result)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg(errors.New("invalid answer payload"))
				continue
			}
			h.step(r.Context(), session, send, func() error {
				return session.Answer(r.Context(), payload.QuestionID, payload.OptionIndex)
			})
		case "skip":
			var payload skipPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg(errors.New("invalid skip payload"))
				continue
			}
			h.step(r.Context(), session, send, func() error {
				return session.Skip(r.Context(), payload.QuestionID)
			})
		case "goto":
			var payload gotoPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg(errors.New("invalid goto payload"))
				continue
			}
			if err := session.Goto(payload.Index); err != nil {
				send <- errMsg(err)
				continue
			}
			send <- progressMsg(session, false)
		case "submit":
			var payload submitPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg(errors.New("invalid submit payload"))
				continue
			}
			lead, err := session.Submit(r.Context(), payload.Email)
			if err != nil {
				send <- errMsg(err)
				continue
			}
			send <- outboundMessage[any]{Type: "completed", Payload: resultPayload{
				Result:    lead.Result,
				Finalized: true,
			}}
			h.sessions.DeleteIfCompleted(sessionKey)
		default:
			send <- errMsg(errors.New("unsupported message type"))
		}
	}

	close(send)
	<-writerDone
}

// step runs an answer or skip, reports progress (including a soft save
// failure), and emits the result message if the session just finished.
func (h *WSHandler) step(ctx context.Context, session *app.Session, send chan<- outboundMessage[any], fn func() error) {
	err := fn()
	saveFailed := false
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStorageUnavailable):
		// Answer was kept in memory; tell the client so it can warn/retry.
		saveFailed = true
	default:
		send <- errMsg(err)
		return
	}

	send <- progressMsg(session, saveFailed)

	if result, ok := session.Result(); ok {
		send <- h.resultMsg(ctx, session, result)
	}
}

func (h *WSHandler) resultMsg(ctx context.Context, session *app.Session, result string) outboundMessage[any] {
	return outboundMessage[any]{Type: "result", Payload: resultPayload{
		Result:          result,
		Recommendations: h.service.Recommendations(ctx, result),
		Finalized:       session.State() == app.StateCompleted,
	}}
}

func progressMsg(session *app.Session, saveFailed bool) outboundMessage[any] {
	return outboundMessage[any]{Type: "progress", Payload: progressPayload{
		State:           session.State().String(),
		CurrentQuestion: session.CurrentQuestion(),
		SaveFailed:      saveFailed,
	}}
}

func errMsg(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}
