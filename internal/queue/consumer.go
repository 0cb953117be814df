package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
	"github.com/Shine-Infosolutions/eventbackend/internal/render"
)

// DispatchWorker drains the dispatch queue.  No SMS or mail gateway is
// wired in: every delivery is appended to LogDir/dispatch.log, and email
// deliveries additionally leave the rendered PDF in OutboxDir for the
// mail relay to pick up.
type DispatchWorker struct {
	URL       string
	Queue     string
	LogDir    string
	OutboxDir string
	Log       *logger.Logger
}

// Run connects, consumes and reconnects with backoff until ctx is done.
func (w *DispatchWorker) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(w.URL)
		if err != nil {
			w.Log.Warn("dispatch-consumer: dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = w.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.Log.Warn("dispatch-consumer: consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (w *DispatchWorker) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		w.Log.Warn("dispatch-consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(w.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(w.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := w.Handle(d.Body); err != nil {
				w.Log.Error("dispatch-consumer: handle message failed", "error", err)
				_ = d.Nack(false, false) // drop, do not requeue a poison message
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func passData(ev PassDispatchEvent) render.PassData {
	return render.PassData{
		EventName:     ev.EventName,
		BookingID:     ev.DisplayID,
		PassType:      ev.PassType,
		Price:         ev.Price,
		BuyerName:     ev.BuyerName,
		BuyerPhone:    ev.BuyerPhone,
		TotalPeople:   ev.TotalPeople,
		TotalAmount:   ev.TotalAmount,
		PaymentStatus: ev.PaymentStatus,
		Holders:       ev.PassHolders,
		Token:         ev.Token,
		PassURL:       ev.PassURL,
	}
}

// Handle processes one dispatch message body.
func (w *DispatchWorker) Handle(body []byte) error {
	var ev PassDispatchEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.BookingID == "" || ev.Recipient == "" {
		return errors.New("dispatch without booking or recipient")
	}

	var attachment string
	if ev.Channel == "email" {
		pdf, err := render.PassPDF(passData(ev))
		if err != nil {
			return fmt.Errorf("render pass: %w", err)
		}
		if err := os.MkdirAll(w.OutboxDir, 0o755); err != nil {
			return fmt.Errorf("mkdir outbox: %w", err)
		}
		attachment = filepath.Join(w.OutboxDir, fmt.Sprintf("pass-%s.pdf", ev.BookingID))
		if err := os.WriteFile(attachment, pdf, 0o644); err != nil {
			return fmt.Errorf("write pass: %w", err)
		}
	}

	if err := os.MkdirAll(w.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(w.LogDir, "dispatch.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Pass dispatched | booking=%s | pass=%s | channel=%s | to=%s | people=%d | by=%q",
		ev.RequestedAt, ev.DisplayID, ev.PassType, ev.Channel, ev.Recipient, ev.TotalPeople, ev.RequestedBy)
	if attachment != "" {
		line += " | attachment=" + attachment
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
