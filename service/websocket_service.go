package service

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/legalpt/legal-rag-be/types"
)

// WebSocketService streams query answers over a websocket: sources are
// sent as soon as retrieval finishes, then answer deltas as they arrive.
type WebSocketService struct {
	answers  *AnswerService
	upgrader websocket.Upgrader
}

func NewWebSocketService(answers *AnswerService) *WebSocketService {
	return &WebSocketService{
		answers: answers,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (s *WebSocketService) HandleQuery(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			log.Println("Unmarshal error:", err)
			conn.WriteMessage(messageType, []byte("Error processing message"))
			continue
		}

		switch req.Type {
		case types.TypeWebsocketQuery:
			s.handleQueryMessage(ctx, conn, req.Payload)
		case types.TypeWebsocketPing:
			if err := conn.WriteJSON(types.WebsocketResponse{Type: types.TypeWebsocketPong}); err != nil {
				log.Println("Write error:", err)
			}
		default:
			log.Println("Invalid message type:", req.Type)
		}
	}
}

func (s *WebSocketService) handleQueryMessage(ctx context.Context, conn *websocket.Conn, payload interface{}) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		s.writeError(conn, "invalid payload")
		return
	}
	var queryReq types.QueryRequest
	if err := json.Unmarshal(payloadBytes, &queryReq); err != nil {
		s.writeError(conn, "invalid query payload")
		return
	}

	conn.WriteJSON(types.WebsocketResponse{Type: types.TypeWebsocketProcessing})

	err = s.answers.AnswerQueryStream(ctx, &queryReq,
		func(sources []types.SourceItem) {
			conn.WriteJSON(types.WebsocketResponse{
				Type:    types.TypeWebsocketSources,
				Payload: sources,
			})
		},
		func(delta string) {
			conn.WriteJSON(types.WebsocketResponse{
				Type:    types.TypeWebsocketAnswer,
				Payload: delta,
			})
		})
	if err != nil {
		log.Println("Query stream error:", err)
		s.writeError(conn, "failed to answer query")
		return
	}

	// Empty delta marks the end of the answer stream.
	conn.WriteJSON(types.WebsocketResponse{Type: types.TypeWebsocketAnswer, Payload: ""})
}

func (s *WebSocketService) writeError(conn *websocket.Conn, msg string) {
	if err := conn.WriteJSON(types.WebsocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: msg,
	}); err != nil {
		log.Println("Write error:", err)
	}
}
