package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// relayEnvelope is the cross-instance form of an announcement.
type relayEnvelope struct {
	BoardID uuid.UUID       `json:"boardId"`
	Action  string          `json:"action"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Relay is a Broadcaster that fans announcements out through a Redis channel
// so every instance delivers them to its own connected clients. The
// publishing instance delivers through its subscription like any other, so
// ordering across instances follows the channel's order.
type Relay struct {
	hub     *Hub
	rc      *redis.Client
	channel string
}

func NewRelay(hub *Hub, rc *redis.Client, channel string) *Relay {
	return &Relay{hub: hub, rc: rc, channel: channel}
}

// Broadcast publishes the announcement; local delivery happens when it comes
// back through the subscription.
func (r *Relay) Broadcast(boardID uuid.UUID, action string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.WithError(err).WithField("action", action).Error("failed to encode relay event")
		return
	}
	payload, err := json.Marshal(relayEnvelope{BoardID: boardID, Action: action, Data: raw})
	if err != nil {
		log.WithError(err).WithField("action", action).Error("failed to encode relay envelope")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.rc.Publish(ctx, r.channel, payload).Err(); err != nil {
		log.WithError(err).WithField("action", action).Error("failed to publish relay event")
	}
}

// Run consumes the Redis channel and hands each announcement to the local
// hub. It reconnects with a short backoff if the subscription drops.
func (r *Relay) Run(ctx context.Context) {
	for {
		sub := r.rc.Subscribe(ctx, r.channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var env relayEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					log.WithError(err).Error("malformed relay event")
					continue
				}
				r.hub.Broadcast(env.BoardID, env.Action, env.Data)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn("relay subscription closed, reconnecting")
		time.Sleep(time.Second)
	}
}
