package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/core/usecases"
	"github.com/samirrijal/coords/internal/pkg/metrics"
)

// wsMessage is sent from client to change the displayed projection.
type wsMessage struct {
	Action     string `json:"action"`     // "select" | "refresh"
	Projection string `json:"projection"` // projection id or name
}

// wsFrame is sent from server to client.
type wsFrame struct {
	Type        string          `json:"type"` // readout | age | consent_required | no_fix | error
	Readout     *domain.Readout `json:"readout,omitempty"`
	Projection  string          `json:"projection,omitempty"`
	LastUpdated string          `json:"last_updated,omitempty"`
	AgeSeconds  int64           `json:"age_seconds,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// WebSocketHandler returns the live view. Each connection renders the
// session's selected projection whenever the location moves or the
// selection changes, and pushes the fix age once per tick.
// Clients send JSON: {"action":"select","projection":"utm"}
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	tick := deps.Tick
	if tick <= 0 {
		tick = time.Second
	}

	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		renderer := usecases.NewRenderer(deps.Readouts)
		defer renderer.Close()

		render := func() {
			proj := deps.Session.Projection()
			renderer.Request(ctx, proj, func(r *domain.Readout, err error) {
				_ = writeJSON(readoutFrame(proj, r, err))
			})
		}

		changes, stopWatch := deps.Session.Watch()
		defer stopWatch()

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(tick)
			defer ticker.Stop()
			ping := time.NewTicker(30 * time.Second)
			defer ping.Stop()

			for {
				select {
				case <-changes:
					render()
				case <-ticker.C:
					if last, ok := deps.Session.LastUpdated(); ok {
						age, _ := deps.Session.Age()
						_ = writeJSON(wsFrame{Type: "age", LastUpdated: last, AgeSeconds: int64(age / time.Second)})
					}
				case <-ping.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		render()

		// Read client messages
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsFrame{Type: "error", Error: "invalid JSON"})
				continue
			}

			switch m.Action {
			case "select":
				p, err := domain.ParseProjection(m.Projection)
				if err != nil {
					_ = writeJSON(wsFrame{Type: "error", Error: err.Error()})
					continue
				}
				// A change notifies the watcher, which re-renders.
				if changed, _ := deps.Session.SetProjection(p); !changed {
					render()
				}
			case "refresh":
				render()
			default:
				_ = writeJSON(wsFrame{Type: "error", Error: "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}

func readoutFrame(proj domain.Projection, r *domain.Readout, err error) wsFrame {
	switch {
	case err == nil:
		return wsFrame{Type: "readout", Readout: r, Projection: proj.String()}
	case errors.Is(err, domain.ErrConsentRequired):
		return wsFrame{Type: "consent_required", Projection: proj.String()}
	case errors.Is(err, domain.ErrNoFix):
		return wsFrame{Type: "no_fix", Projection: proj.String()}
	default:
		return wsFrame{Type: "error", Projection: proj.String(), Error: err.Error()}
	}
}
