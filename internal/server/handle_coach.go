package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/forkreel/forkreel/internal/coaching"
	"github.com/forkreel/forkreel/internal/directorpack"
)

// handleCoach is the live coaching WebSocket. The client identifies itself by
// session token and pattern, sends a control start when recording begins, and
// receives scheduled coaching cues until control stop or disconnect. Feedback
// frames are answered with adaptive responses at any point in between.
func handleCoach(logger *slog.Logger, store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		patternID := r.URL.Query().Get("pattern")
		if patternID == "" && st.SelectedPattern != nil {
			patternID = st.SelectedPattern.ID
		}

		// Coaching never blocks on catalog problems: a missing pack just
		// means no scheduled cues, only generic adaptive responses.
		var pack directorpack.Pack
		if patternID != "" {
			if doc, err := store.GetPattern(r.Context(), patternID); err == nil && doc.DirectorPack != nil {
				pack = *doc.DirectorPack
			} else if err != nil && !errors.Is(err, ErrNotFound) {
				logger.Error("loading pattern for coaching", "pattern_id", patternID, "error", err)
			}
		}
		engine := coaching.NewEngine(pack, logger)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Error("accepting coach websocket", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
		defer cancel()

		logger.Info("coach channel open",
			"session_id", st.ID,
			"channel", r.URL.Query().Get("session"),
			"pattern_id", patternID,
		)

		runID := ""
		if st.Run != nil {
			runID = st.Run.ID
		}

		var writeMu sync.Mutex
		send := func(m coaching.Message) error {
			data, err := coaching.Encode(m)
			if err != nil {
				return err
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			return conn.Write(ctx, websocket.MessageText, data)
		}

		record := func(kind, payload string, elapsedMS int) {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := store.LogIntervention(ctx, st.ID, runID, kind, payload, elapsedMS); err != nil {
					logger.Error("logging intervention", "kind", kind, "error", err)
				}
			}()
		}

		var (
			started    bool
			stopped    bool
			stopEngine context.CancelFunc = func() {}
		)
		defer func() { stopEngine() }()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				logger.Info("coach channel closed", "session_id", st.ID, "error", err)
				return
			}

			var env struct {
				Type   coaching.Type          `json:"type"`
				Action coaching.ControlAction `json:"action"`
			}
			if err := json.Unmarshal(data, &env); err != nil {
				logger.Warn("unreadable coach frame", "session_id", st.ID, "error", err)
				continue
			}

			if env.Type == coaching.TypeControl {
				switch env.Action {
				case coaching.ControlStart:
					// Exactly once per connection; duplicates are ignored.
					if started {
						logger.Warn("duplicate control start ignored", "session_id", st.ID)
						continue
					}
					started = true
					record("coach_start", "", 0)
					broker.Publish(st.ID, SessionEvent{Type: "coach_started", RunID: runID})

					ectx, ecancel := context.WithCancel(ctx)
					stopEngine = ecancel
					go engine.Run(ectx, send)
				case coaching.ControlStop:
					if !started || stopped {
						logger.Warn("out-of-order control stop ignored", "session_id", st.ID)
						continue
					}
					stopped = true
					stopEngine()
					record("coach_stop", "", 0)
				default:
					logger.Warn("unknown control action", "session_id", st.ID, "action", env.Action)
				}
				continue
			}

			msg, err := coaching.Decode(data)
			if err != nil {
				logger.Warn("undecodable coach frame", "session_id", st.ID, "error", err)
				continue
			}

			fb, ok := msg.(coaching.Feedback)
			if !ok {
				// Server-bound traffic is control and feedback only.
				logger.Warn("unexpected inbound frame", "session_id", st.ID, "type", msg.MessageType())
				continue
			}

			record("feedback", fb.Text, int(fb.ElapsedSec*1000))
			resp := engine.Adapt(fb.ElapsedSec, fb.Text)
			if err := send(resp); err != nil {
				logger.Info("coach channel closed mid-response", "session_id", st.ID, "error", err)
				return
			}
		}
	}
}
