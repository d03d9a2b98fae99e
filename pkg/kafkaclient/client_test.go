package kafkaclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// mockReader simulates the kafka-go Reader for unit testing.
type mockReader struct {
	messages   chan kafka.Message
	commitChan chan kafka.Message
	mu         sync.Mutex
	isClosed   bool
	failFirst  bool
}

func newMockReader() *mockReader {
	return &mockReader{
		messages:   make(chan kafka.Message, 10),
		commitChan: make(chan kafka.Message, 100),
	}
}

// produce simulates count storage events being published.
func (mr *mockReader) produce(count int) {
	go func() {
		defer close(mr.messages)
		for i := 0; i < count; i++ {
			mr.messages <- kafka.Message{
				Topic:  "minio-events",
				Offset: int64(i),
				Value:  []byte(fmt.Sprintf(`{"Records":[{"s3":{"object":{"key":"discoveries/city-%d/museums.json"}}}]}`, i)),
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
}

func (mr *mockReader) closed() bool {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.isClosed
}

func (mr *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	mr.mu.Lock()
	if mr.failFirst {
		mr.failFirst = false
		mr.mu.Unlock()
		return kafka.Message{}, errors.New("broker not available")
	}
	mr.mu.Unlock()
	if mr.closed() {
		return kafka.Message{}, io.EOF
	}
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg, ok := <-mr.messages:
		if !ok {
			return kafka.Message{}, io.EOF
		}
		return msg, nil
	}
}

func (mr *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	if mr.closed() {
		return io.EOF
	}
	for _, msg := range msgs {
		mr.commitChan <- msg
	}
	return nil
}

func (mr *mockReader) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.isClosed = true
	close(mr.commitChan)
	return nil
}

func TestKafkaConsumer_ConsumeAndCommit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	reader.failFirst = true
	consumer := newConsumer(reader, zap.NewNop())
	consumer.backoff = time.Millisecond

	const expectedMessages = 3
	reader.produce(expectedMessages)
	consumer.StartConsuming(ctx)

	received := 0
	for msg := range consumer.Messages() {
		if msg.Offset != int64(received) {
			t.Errorf("expected offset %d, got %d", received, msg.Offset)
		}
		if err := consumer.CommitOffset(ctx, msg); err != nil {
			t.Errorf("CommitOffset() failed: %v", err)
		}
		received++
	}
	if received != expectedMessages {
		t.Errorf("expected %d messages, got %d", expectedMessages, received)
	}

	consumer.Stop()
	consumer.Stop()

	committed := 0
	for range reader.commitChan {
		committed++
	}
	if committed != expectedMessages {
		t.Errorf("expected %d commits, got %d", expectedMessages, committed)
	}
}

func TestKafkaConsumer_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	consumer := newConsumer(reader, nil)
	reader.produce(100)
	consumer.StartConsuming(ctx)

	for i := 0; i < 5; i++ {
		select {
		case <-consumer.Messages():
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timed out while waiting for a message")
		}
	}

	consumer.Stop()

	remaining := 0
	for range consumer.Messages() {
		remaining++
	}
	if remaining > 0 {
		t.Errorf("expected no messages after stop, found %d", remaining)
	}
	if !reader.closed() {
		t.Error("expected reader to be closed after Stop")
	}
}
