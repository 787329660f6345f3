package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/forkreel/forkreel/internal/coaching"
	"github.com/forkreel/forkreel/internal/directorpack"
)

func dialCoach(t *testing.T, ctx context.Context, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/coach?" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial coach: %v", err)
	}
	return conn
}

func sendControl(t *testing.T, ctx context.Context, conn *websocket.Conn, action coaching.ControlAction) {
	t.Helper()
	frame, _ := json.Marshal(map[string]any{"type": "control", "action": action})
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		t.Fatalf("send control %s: %v", action, err)
	}
}

// readUntil reads frames until one decodes to the wanted type.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, want coaching.Type) coaching.Message {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("reading for %s frame: %v", want, err)
		}
		msg, err := coaching.Decode(data)
		if err != nil {
			t.Fatalf("decoding server frame: %v", err)
		}
		if msg.MessageType() == want {
			return msg
		}
	}
}

func TestCoachChannelStreamsCues(t *testing.T) {
	r, store := testRouter(t)
	if err := store.UpsertPattern(context.Background(), demoPattern()); err != nil {
		t.Fatalf("seed pattern: %v", err)
	}
	token := newSession(t, r)

	ts := httptest.NewServer(r)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dialCoach(t, ctx, ts, "token="+token+"&pattern=demo-transition-hook")
	defer conn.CloseNow()

	sendControl(t, ctx, conn, coaching.ControlStart)

	// The opening checkpoint fires at t=0: a graphic guide and a text coach
	// line carrying the critical hook rule.
	gg := readUntil(t, ctx, conn, coaching.TypeGraphicGuide).(coaching.GraphicGuide)
	if gg.Priority != directorpack.PriorityCritical {
		t.Errorf("expected critical opening cue, got %q", gg.Priority)
	}
	if gg.Shape != "frame" {
		t.Errorf("expected frame shape, got %q", gg.Shape)
	}

	tc := readUntil(t, ctx, conn, coaching.TypeTextCoach).(coaching.TextCoach)
	if tc.Text == "" {
		t.Error("expected a coaching line")
	}

	// Feedback inside the opening window gets an adaptive response keyed to
	// the window's top rule.
	fb, _ := coaching.Encode(coaching.Feedback{ElapsedSec: 1, Text: "잘 되고 있나요?"})
	if err := conn.Write(ctx, websocket.MessageText, fb); err != nil {
		t.Fatalf("send feedback: %v", err)
	}

	ar := readUntil(t, ctx, conn, coaching.TypeAdaptiveResponse).(coaching.AdaptiveResponse)
	if ar.Priority != directorpack.PriorityCritical {
		t.Errorf("expected critical adaptive response in the hook window, got %q", ar.Priority)
	}
	if ar.ElapsedSec != 1 {
		t.Errorf("expected elapsed echo of 1, got %v", ar.ElapsedSec)
	}
	if !strings.Contains(ar.Text, "지금 구간 포인트") {
		t.Errorf("expected a window-pointed response, got %q", ar.Text)
	}

	sendControl(t, ctx, conn, coaching.ControlStop)
	conn.Close(websocket.StatusNormalClosure, "")
}

func TestCoachChannelDuplicateStartIgnored(t *testing.T) {
	r, store := testRouter(t)
	if err := store.UpsertPattern(context.Background(), demoPattern()); err != nil {
		t.Fatalf("seed pattern: %v", err)
	}
	token := newSession(t, r)

	ts := httptest.NewServer(r)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dialCoach(t, ctx, ts, "token="+token+"&pattern=demo-transition-hook")
	defer conn.CloseNow()

	sendControl(t, ctx, conn, coaching.ControlStart)
	sendControl(t, ctx, conn, coaching.ControlStart)

	// The channel keeps working after the duplicate: feedback still answers.
	fb, _ := coaching.Encode(coaching.Feedback{ElapsedSec: 1, Text: "ok"})
	if err := conn.Write(ctx, websocket.MessageText, fb); err != nil {
		t.Fatalf("send feedback: %v", err)
	}
	readUntil(t, ctx, conn, coaching.TypeAdaptiveResponse)
}

func TestCoachChannelRequiresToken(t *testing.T) {
	r, _ := testRouter(t)

	ts := httptest.NewServer(r)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/coach"
	if _, _, err := websocket.Dial(ctx, url, nil); err == nil {
		t.Fatal("expected handshake to fail without a token")
	}
}

func TestCoachChannelWithoutPackStillAnswers(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	ts := httptest.NewServer(r)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dialCoach(t, ctx, ts, "token="+token)
	defer conn.CloseNow()

	sendControl(t, ctx, conn, coaching.ControlStart)

	fb, _ := coaching.Encode(coaching.Feedback{ElapsedSec: 2, Text: "?"})
	if err := conn.Write(ctx, websocket.MessageText, fb); err != nil {
		t.Fatalf("send feedback: %v", err)
	}

	ar := readUntil(t, ctx, conn, coaching.TypeAdaptiveResponse).(coaching.AdaptiveResponse)
	if ar.Priority != directorpack.PriorityMedium {
		t.Errorf("expected generic medium response without a pack, got %q", ar.Priority)
	}
}
