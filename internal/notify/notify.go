package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// 策略被替换的原因
const (
	ReasonCalibrate = "calibrate"
	ReasonEnforce   = "enforce"
	ReasonEdit      = "edit"
	ReasonReset     = "reset"
)

// StrategyReplaced 策略整体替换事件，消息体即完整的策略文档
type StrategyReplaced struct {
	EventID    string                 `json:"eventId"`
	Reason     string                 `json:"reason"`
	RunID      string                 `json:"runId,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
	Strategy   *model.PricingStrategy `json:"strategy"`
}

// NewStrategyReplaced 创建事件
func NewStrategyReplaced(reason, runID string, strategy *model.PricingStrategy) StrategyReplaced {
	return StrategyReplaced{
		EventID:    uuid.NewString(),
		Reason:     reason,
		RunID:      runID,
		OccurredAt: time.Now().UTC(),
		Strategy:   strategy,
	}
}

// Publisher 策略变更事件发布
type Publisher interface {
	PublishStrategyReplaced(ctx context.Context, ev StrategyReplaced) error
	Close() error
}

// messageWriter *kafka.Writer 的最小子集
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 写入 Kafka 主题
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// NewKafkaWriter 创建 Kafka 写入器
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// NewKafkaPublisher 使用给定写入器创建发布器
func NewKafkaPublisher(writer messageWriter, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

// PublishStrategyReplaced 发布事件，消息键为 strategy-<reason>
func (p *KafkaPublisher) PublishStrategyReplaced(ctx context.Context, ev StrategyReplaced) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "failed to encode strategy event")
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("strategy-%s", ev.Reason)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(ev.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return eris.Wrapf(err, "failed to publish to %s", p.topic)
	}

	p.logger.Debug().Str("topic", p.topic).Str("reason", ev.Reason).Str("event_id", ev.EventID).Msg("strategy event published")
	return nil
}

// Close 关闭写入器
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher 未配置 broker 时使用，丢弃所有事件
type NopPublisher struct{}

// PublishStrategyReplaced 不做任何事
func (NopPublisher) PublishStrategyReplaced(context.Context, StrategyReplaced) error { return nil }

// Close 不做任何事
func (NopPublisher) Close() error { return nil }

// New 按配置选择发布器：有 broker 时写 Kafka，否则为空实现
func New(brokers []string, topic string, logger zerolog.Logger) Publisher {
	if len(brokers) == 0 || topic == "" {
		return NopPublisher{}
	}
	return NewKafkaPublisher(NewKafkaWriter(brokers, topic), topic, logger)
}
