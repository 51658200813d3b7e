package chat

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
)

// ChangeNotifier fans out "this conversation changed" signals to live
// subscribers. A signal carries no payload; the store reloads the full
// snapshot on every signal, so a lost or coalesced signal only delays
// delivery, it never corrupts state.
type ChangeNotifier interface {
	Publish(ctx context.Context, key string) error
	// Subscribe registers notify for the key and returns an unregister
	// function. The unregister function is safe to call more than once.
	Subscribe(ctx context.Context, key string, notify func()) (func(), error)
}

func changeChannel(key string) string {
	return "chat:changed:" + key
}

// RedisNotifier broadcasts change signals over Redis pub/sub so every
// server instance sees appends made by its peers.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Publish(ctx context.Context, key string) error {
	return n.client.Publish(ctx, changeChannel(key), "1").Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, key string, notify func()) (func(), error) {
	sub := n.client.Subscribe(ctx, changeChannel(key))
	// Wait for the subscription to be confirmed so no signal published
	// after this call returns can be missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		ch := sub.Channel()
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
				notify()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return stop, nil
}

// LocalNotifier fans out in-process. Used in tests and single-instance
// deployments where Redis is not configured.
type LocalNotifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func()
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: make(map[string]map[int]func())}
}

func (n *LocalNotifier) Publish(ctx context.Context, key string) error {
	n.mu.Lock()
	listeners := make([]func(), 0, len(n.subs[key]))
	for _, notify := range n.subs[key] {
		listeners = append(listeners, notify)
	}
	n.mu.Unlock()

	for _, notify := range listeners {
		notify()
	}
	return nil
}

func (n *LocalNotifier) Subscribe(ctx context.Context, key string, notify func()) (func(), error) {
	n.mu.Lock()
	if n.subs[key] == nil {
		n.subs[key] = make(map[int]func())
	}
	id := n.nextID
	n.nextID++
	n.subs[key][id] = notify
	n.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs[key], id)
			n.mu.Unlock()
		})
	}
	return stop, nil
}
