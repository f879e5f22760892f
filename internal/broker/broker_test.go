package broker

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := New(zaptest.NewLogger(t), 4)
	defer bus.Close()

	received := make(chan string, 1)
	bus.Subscribe("test-topic", func(key string, value []byte) {
		received <- key + ":" + string(value)
	})

	if err := bus.Publish("test-topic", "k1", []byte("hello")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case got := <-received:
		if got != "k1:hello" {
			t.Errorf("Expected k1:hello, got %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for delivery")
	}
}

func TestSameKeyPreservesOrder(t *testing.T) {
	bus := New(zaptest.NewLogger(t), 4)
	defer bus.Close()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	const total = 50
	bus.Subscribe("ordered", func(key string, value []byte) {
		mu.Lock()
		got = append(got, string(value))
		if len(got) == total {
			close(done)
		}
		mu.Unlock()
	})

	for i := 0; i < total; i++ {
		if err := bus.Publish("ordered", "same-key", []byte(fmt.Sprintf("%d", i))); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for all messages")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, value := range got {
		if value != fmt.Sprintf("%d", i) {
			t.Fatalf("Message %d out of order: got %s", i, value)
		}
	}
}

func TestMultipleSubscribersSeeEveryMessage(t *testing.T) {
	bus := New(zaptest.NewLogger(t), 2)
	defer bus.Close()

	first := make(chan struct{}, 1)
	second := make(chan struct{}, 1)
	bus.Subscribe("fanout", func(key string, value []byte) { first <- struct{}{} })
	bus.Subscribe("fanout", func(key string, value []byte) { second <- struct{}{} })

	if err := bus.Publish("fanout", "k", []byte("x")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for i, ch := range []chan struct{}{first, second} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("Subscriber %d never received the message", i)
		}
	}
}

func TestPublishRacingCloseDoesNotPanic(t *testing.T) {
	bus := New(zaptest.NewLogger(t), 4)
	bus.Subscribe("jobs", func(key string, value []byte) {})

	panics := make(chan interface{}, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics <- r
				}
			}()
			for {
				if err := bus.Publish("jobs", "k", []byte("x")); err != nil {
					return
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	bus.Close()
	wg.Wait()

	close(panics)
	for r := range panics {
		t.Fatalf("Publish panicked while racing Close: %v", r)
	}
}

func TestNoTopicCreationAfterClose(t *testing.T) {
	bus := New(zaptest.NewLogger(t), 2)
	bus.Close()

	if err := bus.Publish("fresh-topic", "k", []byte("x")); err == nil {
		t.Error("Expected error publishing to a new topic after close")
	}
	// Must return without spawning workers Close no longer waits for.
	bus.Subscribe("fresh-topic", func(key string, value []byte) {})
}

func TestPublishAfterCloseFails(t *testing.T) {
	bus := New(zaptest.NewLogger(t), 2)
	bus.Close()

	if err := bus.Publish("topic", "k", []byte("x")); err == nil {
		t.Error("Expected error publishing to a closed broker")
	}
}

func TestCloseDrainsQueuedMessages(t *testing.T) {
	bus := New(zaptest.NewLogger(t), 1)

	var mu sync.Mutex
	count := 0
	bus.Subscribe("drain", func(key string, value []byte) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	const total = 20
	for i := 0; i < total; i++ {
		if err := bus.Publish("drain", "k", []byte("x")); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	if count != total {
		t.Errorf("Expected %d messages drained before close returned, got %d", total, count)
	}
}
