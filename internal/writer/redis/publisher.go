// internal/writer/redis/publisher.go

// Package redis fans records out over Redis pub/sub. Nothing is stored.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/k13114/ifsmurd/internal/message"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	Source   string // included in every payload
}

// Payload is the JSON message published per record.
type Payload struct {
	Source string         `json:"source,omitempty"`
	Time   time.Time      `json:"time"`
	Values message.Record `json:"values"`
}

// Publisher implements writer.RecordWriter.
type Publisher struct {
	client  *goredis.Client
	channel string
	source  string
	now     func() time.Time
}

func New(cfg Config) (*Publisher, error) {
	if cfg.Addr == "" {
		return nil, errors.New("writer redis: addr required")
	}
	if cfg.Channel == "" {
		return nil, errors.New("writer redis: channel required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Publisher{
		client:  client,
		channel: cfg.Channel,
		source:  cfg.Source,
		now:     time.Now,
	}, nil
}

// Ping checks the server is reachable.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("writer redis: ping: %w", err)
	}
	return nil
}

func (p *Publisher) Write(ctx context.Context, rec message.Record) error {
	body, err := p.encode(rec)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("writer redis: publish: %w", err)
	}
	return nil
}

func (p *Publisher) encode(rec message.Record) ([]byte, error) {
	body, err := json.Marshal(Payload{
		Source: p.source,
		Time:   p.now().UTC(),
		Values: rec,
	})
	if err != nil {
		return nil, fmt.Errorf("writer redis: encode: %w", err)
	}
	return body, nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
