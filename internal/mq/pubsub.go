package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/quillpress/server/config"
)

// PubSub publishes and consumes events over Google Cloud Pub/Sub, one
// topic per channel. Topics and subscriptions are created on first use.
type PubSub struct {
	client    *pubsub.Client
	subSuffix string

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSub connects to the project named in cfg.
func NewPubSub(ctx context.Context, cfg config.PubSubConfig) (*PubSub, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect pubsub: %w", err)
	}

	suffix := strings.TrimSpace(cfg.SubscriptionSuffix)
	if suffix == "" {
		suffix = "-sub"
	}

	return &PubSub{
		client:    client,
		subSuffix: suffix,
		topics:    map[string]*pubsub.Topic{},
	}, nil
}

func (p *PubSub) Publish(ctx context.Context, channel string, payload []byte, attrs map[string]string) (string, error) {
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return "", err
	}
	result := topic.Publish(ctx, &pubsub.Message{Data: payload, Attributes: attrs})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	return id, nil
}

func (p *PubSub) Consume(ctx context.Context, channel string, handler EventHandler) error {
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return err
	}

	sub := p.client.Subscription(channel + p.subSuffix)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		sub, err = p.client.CreateSubscription(ctx, channel+p.subSuffix, pubsub.SubscriptionConfig{Topic: topic})
		if err != nil {
			return fmt.Errorf("create subscription for %s: %w", channel, err)
		}
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		ev := Event{
			ID:      msg.ID,
			Channel: channel,
			Payload: msg.Data,
			Attrs:   msg.Attributes,
		}
		if err := handler(ctx, ev); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (p *PubSub) Close() error {
	return p.client.Close()
}

// topic returns the channel's topic, creating it if necessary. Handles
// are cached so repeated publishes reuse the topic's batching goroutines.
func (p *PubSub) topic(ctx context.Context, channel string) (*pubsub.Topic, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, errors.New("pubsub channel is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if topic, ok := p.topics[channel]; ok {
		return topic, nil
	}

	topic := p.client.Topic(channel)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		topic, err = p.client.CreateTopic(ctx, channel)
		if err != nil {
			return nil, fmt.Errorf("create topic %s: %w", channel, err)
		}
	}
	p.topics[channel] = topic
	return topic, nil
}
