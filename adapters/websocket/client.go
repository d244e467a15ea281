package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vivatalk/mediator/utils/log"
)

// TurnFunc handles one inbound chat frame.
type TurnFunc func(c *Client, frame []byte)

type Client struct {
	conn         *websocket.Conn
	identifier   string
	send         chan []byte
	turns        chan []byte
	incomingPing chan string
	onTurn       TurnFunc
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	closed       bool
}

// Reply frame types.
const (
	ReplyDelta = "delta"
	ReplyDone  = "done"
	ReplyError = "error"
)

// Reply is every frame the server sends.
type Reply struct {
	Type      string    `json:"type"`
	Text      string    `json:"text,omitempty"`
	Error     string    `json:"error,omitempty"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512 * 1024
)

// NewClient wraps conn. sessionID, identifier and the verified subject, if
// any, are attached to the client's context for logging.
func NewClient(conn *websocket.Conn, sessionID, identifier, subject string, onTurn TurnFunc) *Client {
	ctx := context.WithValue(context.Background(), log.RequestIDKey, sessionID)
	ctx = context.WithValue(ctx, log.ClientIDKey, identifier)
	if subject != "" {
		ctx = context.WithValue(ctx, log.SubjectKey, subject)
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:         conn,
		identifier:   identifier,
		send:         make(chan []byte, 256),
		turns:        make(chan []byte, 1),
		incomingPing: make(chan string, 1),
		onTurn:       onTurn,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (c *Client) Run() {
	c.setupHandlers()

	go c.Ping()
	go c.readPump()
	go c.writePump()
	go c.turnLoop()
}

func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	c.conn.SetPingHandler(func(appData string) error {
		log.WithCtx(c.ctx).Debug("Received ping from client", zap.String("appData", appData))
		select {
		case c.incomingPing <- appData:
		default:
		}
		return c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	c.conn.SetPongHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// Close cancels the client's context and closes the connection. It is safe
// to call more than once.
func (c *Client) Close() {
	// Cancel first so a sender blocked on a full buffer lets go of the lock.
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
	close(c.send)
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) Identifier() string {
	return c.identifier
}

// Ping keeps the connection alive while the client is quiet.
func (c *Client) Ping() {
	for {
		select {
		case <-c.incomingPing:
		case <-time.After(pingPeriod):
			if c.IsClosed() {
				return
			}
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Error("Failed to send ping", zap.Error(err))
				c.Close()
				return
			}
			log.WithCtx(c.ctx).Debug("Ping sent")
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		select {
		case c.turns <- message:
		default:
			c.SendReply(Reply{
				Type:    ReplyError,
				Error:   "Busy",
				Details: "Please wait for the current reply to finish.",
			})
		}
	}
}

// turnLoop runs turns one at a time so replies never interleave.
func (c *Client) turnLoop() {
	for {
		select {
		case frame := <-c.turns:
			c.onTurn(c, frame)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.Close()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// SendMessage queues message for the write pump. It blocks while the queue
// is full and fails once the client is closed.
func (c *Client) SendMessage(message []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return websocket.ErrCloseSent
	}
	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// SendReply stamps and queues r.
func (c *Client) SendReply(r Reply) error {
	r.Timestamp = time.Now().UTC()
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.SendMessage(payload)
}
