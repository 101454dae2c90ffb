package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedClient(h *Hub, id uint, role string, buffer int) *Client {
	c := &Client{ID: id, Role: role, Send: make(chan []byte, buffer), Hub: h}
	h.mutex.Lock()
	h.clients[c] = true
	h.mutex.Unlock()
	return c
}

func TestBroadcastToRoleDelivers(t *testing.T) {
	h := NewHub()
	admin := seedClient(h, 1, "admin", 8)
	student := seedClient(h, 2, "student", 8)

	h.BroadcastToRole("admin", []byte("hello"))

	require.Len(t, admin.Send, 1)
	assert.Equal(t, []byte("hello"), <-admin.Send)
	assert.Empty(t, student.Send)
	assert.Equal(t, 2, h.GetConnectedClients())
}

func TestBroadcastToUserDelivers(t *testing.T) {
	h := NewHub()
	owner := seedClient(h, 7, "student", 8)
	other := seedClient(h, 8, "student", 8)

	h.BroadcastToUser(7, []byte("yours"))

	require.Len(t, owner.Send, 1)
	assert.Empty(t, other.Send)
}

// Slow clients get evicted during a broadcast, which mutates the client map.
// Hammering role broadcasts from many goroutines over unbuffered clients must
// neither corrupt the map nor close a Send channel twice.
func TestConcurrentBroadcastsEvictSlowClients(t *testing.T) {
	h := NewHub()
	for i := 0; i < 50; i++ {
		seedClient(h, uint(i), "admin", 0)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.BroadcastToRole("admin", []byte("ping"))
		}()
	}
	wg.Wait()

	assert.Zero(t, h.GetConnectedClients())
}

func TestEvictedClientChannelIsClosedOnce(t *testing.T) {
	h := NewHub()
	slow := seedClient(h, 1, "admin", 0)

	h.BroadcastToRole("admin", []byte("ping"))

	_, open := <-slow.Send
	assert.False(t, open)
	assert.Zero(t, h.GetConnectedClients())
}
