package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"lynkledger/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Client is one balance feed bound to an organization. It receives every
// update of that organization until it narrows the feed to a set of accounts.
type Client struct {
	orgID string
	conn  *websocket.Conn
	send  chan []byte

	mu       sync.RWMutex
	accounts map[string]struct{}
}

// subscription is the only message a client sends. An empty account list
// restores the full organization feed.
type subscription struct {
	Accounts []string `json:"accounts"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newClient(orgID string, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		orgID: orgID,
		conn:  conn,
		send:  make(chan []byte, buffer),
	}
}

// ServeWS upgrades the request and streams balance updates of orgID until
// the peer goes away.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, orgID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
		return
	}
	client := newClient(orgID, conn, sendBuffer)
	hub.Register(client)
	go client.writePump(hub)
	client.readPump(hub)
}

func (c *Client) subscribe(accounts []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(accounts) == 0 {
		c.accounts = nil
		return
	}
	c.accounts = make(map[string]struct{}, len(accounts))
	for _, id := range accounts {
		c.accounts[id] = struct{}{}
	}
}

func (c *Client) wants(accountID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.accounts == nil {
		return true
	}
	_, ok := c.accounts[accountID]
	return ok
}

// handle applies one inbound frame. Frames that are not a subscription are
// ignored so a misbehaving peer keeps its current feed.
func (c *Client) handle(message []byte) {
	var sub subscription
	if err := json.Unmarshal(message, &sub); err != nil {
		log := logger.WithOrganization("websocket", c.orgID)
		log.Debug().Err(err).Msg("ignoring malformed subscription")
		return
	}
	c.subscribe(sub.Accounts)
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.Unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handle(message)
	}
}

func (c *Client) writePump(hub *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		hub.Unregister(c)
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
