package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type ChartPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewChartPubSub(rdb *redis.Client) *ChartPubSub {
	return &ChartPubSub{
		rdb:     rdb,
		channel: ChannelChartChanged(),
	}
}

// ChartChanged is the message published after seats were booked.
type ChartChanged struct {
	Type      string `json:"type"`
	Reference string `json:"reference"`
	Seats     []int  `json:"seats"`
	TsUnix    int64  `json:"ts_unix"`
}

func (p *ChartPubSub) PublishChartChanged(ctx context.Context, reference string, seats []int) error {
	msg := ChartChanged{
		Type:      "chart_changed",
		Reference: reference,
		Seats:     seats,
		TsUnix:    time.Now().Unix(),
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe calls handler for every chart change until ctx is done.
// Malformed messages are skipped.
func (p *ChartPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, msg ChartChanged)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg ChartChanged
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil &&
				msg.Type == "chart_changed" {
				handler(ctx, msg)
			}
		}
	}
}
