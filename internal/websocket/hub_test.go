package websocket

import (
	"encoding/json"
	"testing"
)

func receive(t *testing.T, client *Client) (BalanceUpdate, bool) {
	t.Helper()
	select {
	case payload := <-client.send:
		var update BalanceUpdate
		if err := json.Unmarshal(payload, &update); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return update, true
	default:
		return BalanceUpdate{}, false
	}
}

func TestHubBroadcastsToOrganization(t *testing.T) {
	hub := NewHub()
	own := newClient("org-1", nil, 1)
	other := newClient("org-2", nil, 1)
	hub.Register(own)
	hub.Register(other)

	hub.BroadcastBalance("org-1", BalanceUpdate{AccountID: "acc-1", Balance: "100.00", Currency: "USD"})

	update, ok := receive(t, own)
	if !ok {
		t.Fatal("expected update for org-1 client")
	}
	if update.AccountID != "acc-1" || update.Balance != "100.00" {
		t.Fatalf("unexpected update: %#v", update)
	}
	if _, ok := receive(t, other); ok {
		t.Fatal("org-2 client received another organization's update")
	}
}

func TestHubHonoursAccountSubscription(t *testing.T) {
	hub := NewHub()
	client := newClient("org-1", nil, 4)
	hub.Register(client)

	client.handle([]byte(`{"accounts":["acc-2"]}`))
	hub.BroadcastBalance("org-1", BalanceUpdate{AccountID: "acc-1"})
	hub.BroadcastBalance("org-1", BalanceUpdate{AccountID: "acc-2"})

	update, ok := receive(t, client)
	if !ok || update.AccountID != "acc-2" {
		t.Fatalf("expected only acc-2, got %#v", update)
	}
	if _, ok := receive(t, client); ok {
		t.Fatal("unsubscribed account was delivered")
	}

	client.handle([]byte(`not json`))
	hub.BroadcastBalance("org-1", BalanceUpdate{AccountID: "acc-1"})
	if _, ok := receive(t, client); ok {
		t.Fatal("malformed frame must keep the current subscription")
	}

	client.handle([]byte(`{"accounts":[]}`))
	hub.BroadcastBalance("org-1", BalanceUpdate{AccountID: "acc-1"})
	if _, ok := receive(t, client); !ok {
		t.Fatal("empty subscription should restore the full feed")
	}
}

func TestHubDropsWhenClientIsFull(t *testing.T) {
	hub := NewHub()
	client := newClient("org-1", nil, 1)
	hub.Register(client)
	hub.BroadcastBalance("org-1", BalanceUpdate{AccountID: "a"})
	hub.BroadcastBalance("org-1", BalanceUpdate{AccountID: "b"})
	if len(client.send) != 1 {
		t.Fatalf("expected one buffered message, got %d", len(client.send))
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	client := newClient("org-1", nil, 1)
	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client)
	if hub.Connections("org-1") != 0 {
		t.Fatalf("expected no connections, got %d", hub.Connections("org-1"))
	}
}
