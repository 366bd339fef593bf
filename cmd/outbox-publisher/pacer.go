package main

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

const jitterWindow = 250 * time.Millisecond

// pacer spaces out polls. Consecutive failures double the pause up to the
// ceiling; any successful batch resets it.
type pacer struct {
	base    time.Duration
	ceiling time.Duration
	current time.Duration
}

func newPacer(base, ceiling time.Duration) *pacer {
	if base <= 0 {
		base = defaultIdle
	}
	if ceiling < base {
		ceiling = base
	}
	return &pacer{base: base, ceiling: ceiling, current: base}
}

func (p *pacer) idle() time.Duration { return jitter(p.base) }

func (p *pacer) failed() time.Duration {
	p.current = min(p.current*2, p.ceiling)
	return jitter(p.current)
}

func (p *pacer) reset() { p.current = p.base }

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}

// topicCache keeps one publisher per topic for the life of the relay so the
// client's batching spans polls. stop flushes outstanding messages.
type topicCache struct {
	mu      sync.Mutex
	client  pubSubClient
	byTopic map[string]*gcppubsub.Publisher
}

func newTopicCache(client pubSubClient) *topicCache {
	return &topicCache{client: client, byTopic: make(map[string]*gcppubsub.Publisher)}
}

func (c *topicCache) get(topic string) publisher {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.byTopic[topic]
	if !ok {
		if p = c.client.Publisher(topic); p == nil {
			return nil
		}
		c.byTopic[topic] = p
	}
	return gcpPublisher{p}
}

func (c *topicCache) stop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, p := range c.byTopic {
		p.Stop()
		delete(c.byTopic, topic)
	}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return g.p.Publish(ctx, msg)
}
