package ws

import (
	"context"
	"log/slog"

	"chatsync/internal/chat"
	"chatsync/internal/metrics"
)

// Broadcaster drains a buffered queue of domain events and fans each one
// out through the hub. Delivery is at-most-once and best-effort: a full
// queue or a target with no live connections drops the event, and the
// durable records remain the source of truth.
type Broadcaster struct {
	hub   *Hub
	queue chan chat.Event
	log   *slog.Logger
}

func NewBroadcaster(hub *Hub, queueSize int, log *slog.Logger) *Broadcaster {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{
		hub:   hub,
		queue: make(chan chat.Event, queueSize),
		log:   log,
	}
}

// Publish enqueues an event without blocking the caller. Overflow is
// dropped and counted; a committed write must never wait on live
// delivery.
func (b *Broadcaster) Publish(ev chat.Event) {
	select {
	case b.queue <- ev:
	default:
		metrics.EventsDropped.Inc()
		b.log.Warn("event queue full, dropping", "type", ev.Type)
	}
}

// Run consumes the queue until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.queue:
			b.deliver(ev)
		}
	}
}

func (b *Broadcaster) deliver(ev chat.Event) {
	var n int
	if ev.Room != "" {
		n = b.hub.SendToRoom(ev.Room, ev)
	} else {
		n = b.hub.SendToUsers(ev.Targets, ev)
	}

	if n == 0 {
		metrics.EventsDropped.Inc()
		b.log.Debug("event had no live recipients", "type", ev.Type, "room", ev.Room)
		return
	}
	metrics.EventsDelivered.Inc()
	b.log.Debug("event delivered", "type", ev.Type, "room", ev.Room, "connections", n)
}

// AnnouncePresence pushes the current online-user snapshot to everyone
// online. Called on became-online and became-offline edges.
func (b *Broadcaster) AnnouncePresence() {
	ids := b.hub.Snapshot()
	b.Publish(chat.Event{
		Type:    chat.EventOnlineUsers,
		Targets: ids,
		Data:    map[string]interface{}{"ids": ids},
	})
}
