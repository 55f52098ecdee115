package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

// TestKafkaPublisher 测试事件编码
func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, "pricing", zerolog.Nop())

	s := model.NewPricingStrategy()
	s.ListMultipliers["Default"] = 1.5
	ev := NewStrategyReplaced(ReasonCalibrate, "run-1", s)

	if err := p.PublishStrategyReplaced(context.Background(), ev); err != nil {
		t.Fatalf("PublishStrategyReplaced: %v", err)
	}
	if len(w.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.messages))
	}
	msg := w.messages[0]
	if string(msg.Key) != "strategy-calibrate" {
		t.Errorf("key = %q", msg.Key)
	}

	var decoded StrategyReplaced
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.RunID != "run-1" || decoded.EventID != ev.EventID || decoded.Strategy.ListMultipliers["Default"] != 1.5 {
		t.Errorf("decoded = %+v", decoded)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close = %v, closed = %v", err, w.closed)
	}
}

// TestKafkaPublisherError 写入失败时返回错误
func TestKafkaPublisherError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewKafkaPublisher(w, "pricing", zerolog.Nop())
	if err := p.PublishStrategyReplaced(context.Background(), NewStrategyReplaced(ReasonReset, "", nil)); err == nil {
		t.Error("expected error")
	}
}

// TestNewWithoutBrokers 未配置 broker 时为空实现
func TestNewWithoutBrokers(t *testing.T) {
	p := New(nil, "pricing", zerolog.Nop())
	if _, ok := p.(NopPublisher); !ok {
		t.Fatalf("New(nil) = %T, want NopPublisher", p)
	}
	if err := p.PublishStrategyReplaced(context.Background(), StrategyReplaced{}); err != nil {
		t.Errorf("nop publish: %v", err)
	}
}
