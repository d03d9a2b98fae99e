package service

import (
	"context"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

// MessageIterator is the message source the Iterator reads storage events
// from. Implementations own the consumer lifecycle and close Messages() when
// they stop.
type MessageIterator interface {
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges that a message has been processed.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads and decodes the object stored at bucket/key. It must be
// read-only and honor ctx.
type LoaderFunc[T any] func(ctx context.Context, bucket, key string) (T, error)

// FetchedObject pairs a decoded object with the event that announced it.
type FetchedObject[T any] struct {
	Data  T
	Key   string
	Event notification.Event
}
