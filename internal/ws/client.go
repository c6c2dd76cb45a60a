package ws

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 64 * 1024
	sendBuffer   = 16
)

// Client одно WebSocket-подключение пользователя. Соединение
// односторонее: сервер шлёт события сделок, входящие кадры читаются
// только ради keepalive.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	userID uuid.UUID
	log    *logrus.Logger
	send   chan []byte
}

func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID, log *logrus.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		userID: userID,
		log:    log,
		send:   make(chan []byte, sendBuffer),
	}
}

// Run держит соединение до разрыва: пишущий цикл в отдельной горутине,
// читающий в текущей.
func (c *Client) Run(ctx context.Context) {
	go func() {
		defer c.recoverPump("writeLoop")
		c.writeLoop()
	}()

	defer c.recoverPump("readLoop")
	defer c.Close()
	c.readLoop(ctx)
}

// Close снимает клиента с учёта в хабе и закрывает соединение.
func (c *Client) Close() {
	c.hub.Unregister(c)
	c.conn.Close()
}

func (c *Client) recoverPump(loop string) {
	if r := recover(); r != nil {
		c.log.Errorf("ws: паника в %s: %v\n%s", loop, r, debug.Stack())
		c.Close()
	}
}

func (c *Client) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for ctx.Err() == nil {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Debug("ws: соединение закрыто")
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
