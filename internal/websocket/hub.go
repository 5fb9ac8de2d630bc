package websocket

import (
	"encoding/json"
	"sync"
)

type BalanceUpdate struct {
	AccountID     string `json:"account_id"`
	Code          string `json:"code"`
	Balance       string `json:"balance"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id"`
}

// Hub fans balance updates out to every connection of an organization.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.orgID] == nil {
		h.clients[client.orgID] = make(map[*Client]struct{})
	}
	h.clients[client.orgID][client] = struct{}{}
}

// Unregister is safe to call from both pumps.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.clients[client.orgID]
	if clients == nil {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.orgID)
	}
}

// BroadcastBalance never blocks; slow clients miss updates. Clients that
// narrowed their feed only see their accounts.
func (h *Hub) BroadcastBalance(orgID string, update BalanceUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[orgID] {
		if !client.wants(update.AccountID) {
			continue
		}
		select {
		case client.send <- payload:
		default:
		}
	}
}

func (h *Hub) Connections(orgID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[orgID])
}
