// Package service turns storage notifications consumed from a message source
// (Kafka via pkg/kafkaclient) into objects loaded from S3/MinIO.
package service

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/minio/minio-go/v7/pkg/notification"
	"go.uber.org/zap"

	"discovery/internal/logger"
)

// Iterator reads MinIO notifications from a MessageIterator, loads every
// accepted object key through a LoaderFunc and yields the results.
//
// The Iterator does not manage the lifecycle of the underlying message source;
// callers start and stop their consumer outside.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
	accept      func(key string) bool
	log         *zap.Logger
}

// NewIterator constructs an Iterator. accept filters object keys; nil
// accepts every key.
func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T], accept func(key string) bool, log *zap.Logger) *Iterator[T] {
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
		accept:      accept,
		log:         logger.OrNop(log),
	}
}

// Objects streams loaded objects until the message channel closes or ctx is
// cancelled. Undecodable messages and failed loads are logged and skipped.
// A message's offset is committed once every record in it was handled, and
// messages with only rejected keys are committed straight away.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			var info notification.Info
			if err := json.Unmarshal(msg.Value, &info); err != nil {
				it.log.Warn("skipping undecodable storage event", zap.Int64("offset", msg.Offset), zap.Error(err))
				continue
			}

			for _, event := range info.Records {
				objectKey, err := url.QueryUnescape(event.S3.Object.Key)
				if err != nil {
					it.log.Warn("skipping malformed object key", zap.String("key", event.S3.Object.Key), zap.Error(err))
					continue
				}
				if !it.accept(objectKey) {
					continue
				}
				data, err := it.loader(ctx, event.S3.Bucket.Name, objectKey)
				if err != nil {
					it.log.Error("loading object failed", zap.String("key", objectKey), zap.Error(err))
					continue
				}

				select {
				case out <- &FetchedObject[T]{Data: data, Key: objectKey, Event: event}:
				case <-ctx.Done():
					return
				}
			}

			if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
				it.log.Error("failed to commit offset", zap.Int64("offset", msg.Offset), zap.Error(err))
			}
		}
	}()
	return out
}
