package websocket

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/vivatalk/mediator/domain"
	"github.com/vivatalk/mediator/security"
	"github.com/vivatalk/mediator/usecase"
)

type chunkCompleter struct {
	chunks []string
}

func (s *chunkCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	return strings.Join(s.chunks, ""), nil
}

func (s *chunkCompleter) Stream(ctx context.Context, req domain.CompletionRequest) (domain.CompletionStream, error) {
	return &chunkStream{chunks: append([]string{}, s.chunks...)}, nil
}

type chunkStream struct {
	chunks []string
}

func (s *chunkStream) Recv() (string, error) {
	if len(s.chunks) == 0 {
		return "", io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

func (s *chunkStream) Close() error { return nil }

func newTestServer(t *testing.T, limit int, jwtSecret string) (*Server, string) {
	t.Helper()
	personas := domain.DefaultPersonas()
	completion := usecase.NewCompletionGateway(personas,
		domain.Configured[domain.Completer](&chunkCompleter{chunks: []string{"Hi", " there"}}))
	s := NewServer(personas, completion,
		security.NewOriginGuard([]string{"https://vivatalk.com"}),
		security.NewFixedWindow("chat", time.Minute, limit),
		security.NewTokenVerifier(jwtSecret))

	e := echo.New()
	e.GET("/conversation/ws", s.Handler)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		s.Shutdown()
		srv.Close()
	})
	return s, "ws" + strings.TrimPrefix(srv.URL, "http") + "/conversation/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://vivatalk.com"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn) Reply {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var r Reply
	if err := conn.ReadJSON(&r); err != nil {
		t.Fatalf("read: %v", err)
	}
	return r
}

const turn = `{"conversationType":"companion","messages":[{"role":"user","content":"hello"}]}`

func TestStreamsTurn(t *testing.T) {
	s, url := newTestServer(t, 10, "")
	conn := dial(t, url)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(turn)); err != nil {
		t.Fatal(err)
	}

	var text strings.Builder
	for {
		r := readReply(t, conn)
		if r.Type == ReplyDone {
			break
		}
		if r.Type != ReplyDelta {
			t.Fatalf("unexpected frame %+v", r)
		}
		text.WriteString(r.Text)
	}
	if text.String() != "Hi there" {
		t.Fatalf("reply = %q", text.String())
	}
	if n := s.GetHub().ClientCount(); n != 1 {
		t.Fatalf("clients = %d", n)
	}
}

func TestRejectsInvalidTurn(t *testing.T) {
	_, url := newTestServer(t, 10, "")
	conn := dial(t, url)

	conn.WriteMessage(websocket.TextMessage, []byte(`{"conversationType":"pirate","messages":[]}`))
	r := readReply(t, conn)
	if r.Type != ReplyError || r.Error != "Invalid conversation type" {
		t.Fatalf("reply = %+v", r)
	}
}

func TestLimitsTurns(t *testing.T) {
	_, url := newTestServer(t, 1, "")
	conn := dial(t, url)

	conn.WriteMessage(websocket.TextMessage, []byte(turn))
	for readReply(t, conn).Type != ReplyDone {
	}

	conn.WriteMessage(websocket.TextMessage, []byte(turn))
	r := readReply(t, conn)
	if r.Type != ReplyError || r.Error != "Too many requests" {
		t.Fatalf("reply = %+v", r)
	}
}

func TestRejectsDisallowedOrigin(t *testing.T) {
	_, url := newTestServer(t, 10, "")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("resp = %v", resp)
	}
}

func TestUnregistersOnDisconnect(t *testing.T) {
	s, url := newTestServer(t, 10, "")
	conn := dial(t, url)

	conn.WriteMessage(websocket.TextMessage, []byte(turn))
	readReply(t, conn)
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for s.GetHub().ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client still registered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestVerifiesBearerToken(t *testing.T) {
	_, url := newTestServer(t, 10, "s3cret")

	header := func(auth string) http.Header {
		h := http.Header{"Origin": {"https://vivatalk.com"}}
		if auth != "" {
			h.Set("Authorization", auth)
		}
		return h
	}

	_, resp, err := websocket.DefaultDialer.Dial(url, header("Bearer not-a-jwt"))
	if err == nil {
		t.Fatal("expected handshake failure for invalid token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("resp = %v", resp)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatal(err)
	}
	for _, auth := range []string{"Bearer " + token, ""} {
		conn, _, err := websocket.DefaultDialer.Dial(url, header(auth))
		if err != nil {
			t.Fatalf("dial with %q: %v", auth, err)
		}
		conn.WriteMessage(websocket.TextMessage, []byte(turn))
		if r := readReply(t, conn); r.Type != ReplyDelta {
			t.Fatalf("reply = %+v", r)
		}
		conn.Close()
	}
}
