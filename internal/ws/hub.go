package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/telemetry"
)

var (
	mu    sync.RWMutex
	rooms = map[string]map[*websocket.Conn]struct{}{}
)

type Action string

const (
	ActionJoin  Action = "join"
	ActionLeave Action = "leave"
)

const roomPrefix = "job.room."

type Event string

const (
	EventJobCreated   Event = "job.event.created"
	EventJobAnswered  Event = "job.event.answered"
	EventJobCompleted Event = "job.event.completed"
	EventJobFailed    Event = "job.event.failed"
)

type PayloadEvent struct {
	Event Event `json:"event"`
	Data  any   `json:"data,omitempty"`
}

type ClientMessage struct {
	Action Action `json:"action"`
	Room   string `json:"room"`
}

func HandleWS(c *websocket.Conn) {
	tlog := telemetry.L().With().Str("module", "ws").Logger()
	tlog.Info().Msg("ws_connected")
	defer func() {
		// cleanup on disconnect
		mu.Lock()
		for room := range rooms {
			delete(rooms[room], c)
		}
		mu.Unlock()
		_ = c.Close()
	}()

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}

		var cm ClientMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			continue
		}

		switch cm.Action {
		case ActionJoin:
			joinRoom(c, cm.Room)
		case ActionLeave:
			leaveRoom(c, cm.Room)
		}
	}
}

func joinRoom(c *websocket.Conn, room string) {
	if room == "" {
		return
	}
	mu.Lock()
	if rooms[room] == nil {
		rooms[room] = map[*websocket.Conn]struct{}{}
	}
	rooms[room][c] = struct{}{}
	mu.Unlock()
}

func leaveRoom(c *websocket.Conn, room string) {
	if room == "" {
		return
	}
	mu.Lock()
	delete(rooms[room], c)
	mu.Unlock()
}

func HasSubscribers(jobID string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return len(rooms[roomPrefix+jobID]) > 0
}

func broadcast(jobID string, pl PayloadEvent) {
	mu.RLock()
	conns := rooms[roomPrefix+jobID]
	mu.RUnlock()

	for c := range conns {
		_ = c.WriteJSON(pl)
	}
}

func BroadcastJobCreated(jobID, queryType string) {
	broadcast(jobID, PayloadEvent{
		Event: EventJobCreated,
		Data:  map[string]any{"job_id": jobID, "query_type": queryType},
	})
}

func BroadcastJobAnswered(jobID, provider string, failed bool) {
	broadcast(jobID, PayloadEvent{
		Event: EventJobAnswered,
		Data:  map[string]any{"job_id": jobID, "provider": provider, "failed": failed},
	})
}

func BroadcastJobCompleted(jobID string) {
	broadcast(jobID, PayloadEvent{
		Event: EventJobCompleted,
		Data:  map[string]any{"job_id": jobID},
	})
}

func BroadcastJobFailed(jobID, errMsg string) {
	broadcast(jobID, PayloadEvent{
		Event: EventJobFailed,
		Data:  map[string]any{"job_id": jobID, "error": errMsg},
	})
}

// Notifier adapts the broadcast functions to the job pool's callback
// interface.
type Notifier struct{}

func (Notifier) JobAnswered(jobID, provider string, failed bool) {
	BroadcastJobAnswered(jobID, provider, failed)
}
func (Notifier) JobCompleted(jobID string)       { BroadcastJobCompleted(jobID) }
func (Notifier) JobFailed(jobID, errMsg string)  { BroadcastJobFailed(jobID, errMsg) }
