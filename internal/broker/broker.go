// Package broker is an in-process, partitioned publish/subscribe bus
// connecting the pipeline's asynchronous hops. Messages with the same key
// hash to the same partition and are delivered to subscribers in order by a
// dedicated partition worker. Delivery is at-least-once from the consumer's
// point of view: handlers must be idempotent.
package broker

import (
	"errors"
	"hash/fnv"
	"sync"

	"go.uber.org/zap"
)

const defaultPartitions = 4

var errClosed = errors.New("broker is closed")

// Handler consumes one message from a topic.
type Handler func(key string, value []byte)

type message struct {
	key   string
	value []byte
}

type topic struct {
	partitions []chan message
	mu         sync.RWMutex
	handlers   []Handler
}

// Broker routes messages between producers and partition workers.
type Broker struct {
	logger     *zap.Logger
	partitions int

	mu     sync.RWMutex
	topics map[string]*topic
	closed bool
	wg     sync.WaitGroup
}

// New creates a broker with the given partition count per topic.
func New(logger *zap.Logger, partitions int) *Broker {
	if partitions <= 0 {
		partitions = defaultPartitions
	}
	return &Broker{
		logger:     logger,
		partitions: partitions,
		topics:     make(map[string]*topic),
	}
}

// Subscribe registers a handler for every message on the topic. Handlers
// registered on the same topic all see every message.
func (b *Broker) Subscribe(name string, handler Handler) {
	t := b.getOrCreateTopic(name)
	if t == nil {
		b.logger.Warn("Subscribe on closed broker", zap.String("topic", name))
		return
	}
	t.mu.Lock()
	t.handlers = append(t.handlers, handler)
	t.mu.Unlock()
	b.logger.Info("Subscribed to topic", zap.String("topic", name))
}

// Publish enqueues a message on the partition its key hashes to. The read
// lock is held across the send: Close flips closed under the write lock
// before closing any channel, so an in-flight send always completes first
// and a later Publish observes closed.
func (b *Broker) Publish(name string, key string, value []byte) error {
	t := b.getOrCreateTopic(name)
	if t == nil {
		return errClosed
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errClosed
	}
	t.partitions[b.partitionFor(key)] <- message{key: key, value: value}
	return nil
}

// Close stops all partition workers after draining queued messages.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	topics := b.topics
	b.mu.Unlock()

	for _, t := range topics {
		for _, p := range t.partitions {
			close(p)
		}
	}
	b.wg.Wait()
	b.logger.Info("Broker closed")
}

func (b *Broker) partitionFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(b.partitions))
}

// getOrCreateTopic returns the named topic, creating it and its partition
// workers on first use. Returns nil once the broker is closed so no worker
// is ever spawned after Close stopped waiting.
func (b *Broker) getOrCreateTopic(name string) *topic {
	b.mu.RLock()
	t, ok := b.topics[name]
	closed := b.closed
	b.mu.RUnlock()
	if ok {
		return t
	}
	if closed {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	if t, ok = b.topics[name]; ok {
		return t
	}

	t = &topic{partitions: make([]chan message, b.partitions)}
	for i := range t.partitions {
		t.partitions[i] = make(chan message, 64)
		b.wg.Add(1)
		go b.runPartition(name, t, t.partitions[i])
	}
	b.topics[name] = t
	return t
}

// runPartition delivers the partition's messages to every handler, one
// message at a time. Per-key ordering follows from one worker per partition.
func (b *Broker) runPartition(name string, t *topic, ch <-chan message) {
	defer b.wg.Done()
	for msg := range ch {
		t.mu.RLock()
		handlers := t.handlers
		t.mu.RUnlock()

		if len(handlers) == 0 {
			b.logger.Warn("No subscribers, dropping message",
				zap.String("topic", name),
				zap.String("key", msg.key))
			continue
		}
		for _, handler := range handlers {
			handler(msg.key, msg.value)
		}
	}
}
