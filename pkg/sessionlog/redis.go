package sessionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	batchSize     = 50
	batchInterval = 2 * time.Second
	queueSize     = 10000
	writeTimeout  = 5 * time.Second

	// DefaultTTL bounds how long a session log survives in Redis.
	DefaultTTL = 24 * time.Hour
)

// Key returns the Redis list key holding a session's log.
func Key(sessionID string) string {
	return "saferoute:session:" + sessionID + ":log"
}

// RedisLog stores entries in a Redis list so several processes can share
// one session log. Appends are queued and written in batches by a
// background goroutine; Entries reads straight from Redis and so only sees
// flushed entries.
type RedisLog struct {
	client *redis.Client
	key    string
	ttl    time.Duration

	interval time.Duration

	// mu guards closed. Append holds the read lock across its send so Close
	// cannot close done between the check and the enqueue.
	mu     sync.RWMutex
	closed bool
	queue  chan Entry
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	// Stats
	entriesWritten uint64
	entriesDropped uint64
	batchesWritten uint64
}

// NewRedisLog creates a log for sessionID and starts its writer.
// ttl <= 0 uses DefaultTTL.
func NewRedisLog(client *redis.Client, sessionID string, ttl time.Duration) *RedisLog {
	return newRedisLog(client, sessionID, ttl, batchInterval)
}

func newRedisLog(client *redis.Client, sessionID string, ttl, interval time.Duration) *RedisLog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	l := &RedisLog{
		client:   client,
		key:      Key(sessionID),
		ttl:      ttl,
		interval: interval,
		queue:    make(chan Entry, queueSize),
		done:     make(chan struct{}),
	}
	l.wg.Add(1)
	go l.writerLoop()
	slog.Info("redis session log started", "component", "sessionlog", "key", l.key, "ttl", ttl)
	return l
}

// Append queues an entry. A full queue drops the entry.
func (l *RedisLog) Append(_ context.Context, e Entry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return fmt.Errorf("session log %s is closed", l.key)
	}

	select {
	case l.queue <- e:
		return nil
	default:
		dropped := atomic.AddUint64(&l.entriesDropped, 1)
		if dropped%1000 == 1 {
			slog.Warn("session log queue full, dropping entries", "component", "sessionlog", "dropped", dropped)
		}
		return fmt.Errorf("session log %s queue full", l.key)
	}
}

func (l *RedisLog) Entries(ctx context.Context) ([]Entry, error) {
	raw, err := l.client.LRange(ctx, l.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.key, err)
	}
	return decodeEntries(raw), nil
}

// Close stops the writer after flushing queued entries.
func (l *RedisLog) Close() error {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.done)
		l.mu.Unlock()

		l.wg.Wait()
		slog.Info("redis session log stopped", "component", "sessionlog", "key", l.key,
			"written", atomic.LoadUint64(&l.entriesWritten),
			"dropped", atomic.LoadUint64(&l.entriesDropped),
			"batches", atomic.LoadUint64(&l.batchesWritten))
	})
	return nil
}

// Stats returns writer statistics.
func (l *RedisLog) Stats() map[string]interface{} {
	return map[string]interface{}{
		"entries_written": atomic.LoadUint64(&l.entriesWritten),
		"entries_dropped": atomic.LoadUint64(&l.entriesDropped),
		"batches_written": atomic.LoadUint64(&l.batchesWritten),
		"queue_len":       len(l.queue),
		"queue_cap":       cap(l.queue),
	}
}

func (l *RedisLog) writerLoop() {
	defer l.wg.Done()

	batch := make([]Entry, 0, batchSize)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case e := <-l.queue:
			batch = append(batch, e)
			if len(batch) >= batchSize {
				l.writeBatch(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.writeBatch(batch)
				batch = batch[:0]
			}

		case <-l.done:
			// Drain whatever is still queued. Append refuses new entries
			// once done is closed, so the queue only shrinks from here.
		drain:
			for {
				select {
				case e := <-l.queue:
					batch = append(batch, e)
					if len(batch) >= batchSize {
						l.writeBatch(batch)
						batch = batch[:0]
					}
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				l.writeBatch(batch)
			}
			return
		}
	}
}

func (l *RedisLog) writeBatch(batch []Entry) {
	values, err := encodeEntries(batch)
	if err != nil {
		slog.Error("encoding session log batch", "component", "sessionlog", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, l.key, values...)
	pipe.Expire(ctx, l.key, l.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("writing session log batch", "component", "sessionlog", "key", l.key, "entries", len(batch), "error", err)
		return
	}

	atomic.AddUint64(&l.entriesWritten, uint64(len(batch)))
	atomic.AddUint64(&l.batchesWritten, 1)
}

func encodeEntries(entries []Entry) ([]interface{}, error) {
	values := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		values = append(values, data)
	}
	return values, nil
}

// decodeEntries skips values that are not valid entries.
func decodeEntries(raw []string) []Entry {
	entries := make([]Entry, 0, len(raw))
	for _, s := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
