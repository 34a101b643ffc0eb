package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func startRelay(t *testing.T, h *Hub) *Relay {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	relay := NewRelay(h, rc, "taskboard:events")
	ctx, cancel := context.WithCancel(context.Background())
	go relay.Run(ctx)
	t.Cleanup(cancel)

	// Give the subscription a moment to attach before publishing.
	assert.Eventually(t, func() bool {
		return rc.PubSubNumSub(context.Background(), "taskboard:events").Val()["taskboard:events"] > 0
	}, time.Second, 5*time.Millisecond)

	return relay
}

func TestRelay_DeliversThroughRedis(t *testing.T) {
	h := startHub(t)
	relay := startRelay(t, h)

	boardID := uuid.New()
	watcher := addClient(t, h, boardID, 4)

	relay.Broadcast(boardID, "task_create", map[string]any{"title": "Ship it"})

	ev := receive(t, watcher)
	assert.Equal(t, "board_updated", ev.Type)
	assert.Equal(t, "task_create", ev.Action)
	assert.Equal(t, boardID, ev.BoardID)

	data, err := json.Marshal(ev.Data)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"title":"Ship it"}`, string(data))
}

func TestRelay_ScopesByBoard(t *testing.T) {
	h := startHub(t)
	relay := startRelay(t, h)

	boardA := uuid.New()
	boardB := uuid.New()
	watcher := addClient(t, h, boardA, 4)

	relay.Broadcast(boardB, "task_delete", nil)
	relay.Broadcast(boardA, "task_update", nil)

	assert.Equal(t, "task_update", receive(t, watcher).Action)
}
