package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/evently-hq/evently-backend/internal/database"
)

// CheckInEvent is the payload broadcast over Redis and WebSocket when a
// guest is checked in at an event.
type CheckInEvent struct {
	Type      string    `json:"type"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id,omitempty"`
	CheckedBy string    `json:"checked_by,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// feedHub fans check-in events out to local WebSocket subscribers per event.
type feedHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan CheckInEvent]struct{}
}

var (
	checkInHub  = &feedHub{subs: make(map[string]map[chan CheckInEvent]struct{})}
	feedStarted sync.Once
)

// SubscribeCheckInFeed registers a subscriber for one event's check-ins.
// The returned func unsubscribes and closes the channel.
func SubscribeCheckInFeed(eventID string) (<-chan CheckInEvent, func()) {
	ch := make(chan CheckInEvent, 16)

	checkInHub.mu.Lock()
	if checkInHub.subs[eventID] == nil {
		checkInHub.subs[eventID] = make(map[chan CheckInEvent]struct{})
	}
	checkInHub.subs[eventID][ch] = struct{}{}
	checkInHub.mu.Unlock()

	unsubscribe := func() {
		checkInHub.mu.Lock()
		if set, ok := checkInHub.subs[eventID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(checkInHub.subs, eventID)
			}
		}
		checkInHub.mu.Unlock()
	}
	return ch, unsubscribe
}

// fanOutCheckInEvent delivers an event to all local subscribers. Slow
// subscribers are skipped rather than blocking the feed.
func fanOutCheckInEvent(event CheckInEvent) {
	if event.EventID == "" {
		return
	}
	checkInHub.mu.RLock()
	defer checkInHub.mu.RUnlock()
	for ch := range checkInHub.subs[event.EventID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishCheckInEvent publishes a check-in to the feed. With Redis connected
// the event goes through pub/sub so every instance fans it out; without
// Redis it is delivered to local subscribers only.
func PublishCheckInEvent(ctx context.Context, event CheckInEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if database.RedisClient == nil {
		fanOutCheckInEvent(event)
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, "checkins:event:"+event.EventID, data).Err()
}

// StartCheckInFeedSubscriber ensures a single shared Redis listener per instance.
func StartCheckInFeedSubscriber(ctx context.Context) {
	feedStarted.Do(func() {
		go runCheckInFeedSubscriber(ctx)
	})
}

func runCheckInFeedSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; check-in feed subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, "checkins:event:*")
			defer pubsub.Close()

			log.Println("✅ Check-in feed subscriber started (pattern: checkins:event:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("check-in feed subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event CheckInEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal check-in event: %v", err)
					continue
				}

				fanOutCheckInEvent(event)
			}
		}()
	}
}
