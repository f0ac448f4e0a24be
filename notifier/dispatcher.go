package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sender доставляет одно сообщение оператору.
type Sender interface {
	Send(ctx context.Context, text string) error
}

const (
	defaultQueueSize   = 64
	defaultSendTimeout = 15 * time.Second
)

// Dispatcher отправляет уведомления в фоне, по одному и в порядке поступления.
// Notify никогда не блокирует цикл проверки: при переполненной очереди сообщение
// отбрасывается с записью в лог. Ошибки доставки только логируются.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan string
	done   chan struct{}
}

// Option настраивает Dispatcher.
type Option func(*Dispatcher)

// WithSendTimeout ограничивает одну попытку отправки.
func WithSendTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.timeout = d }
}

// WithQueueSize задаёт длину очереди.
func WithQueueSize(n int) Option {
	return func(disp *Dispatcher) { disp.queue = make(chan string, n) }
}

func NewDispatcher(sender Sender, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		sender:  sender,
		logger:  logger,
		timeout: defaultSendTimeout,
		queue:   make(chan string, defaultQueueSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	return d
}

// Notify ставит сообщение в очередь и сразу возвращается.
func (d *Dispatcher) Notify(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.logger.Warn("⚠️ notification dropped: dispatcher closed", "message", text)
		return
	}
	select {
	case d.queue <- text:
	default:
		d.logger.Warn("⚠️ notification dropped: queue full", "message", text)
	}
}

// Close перестаёт принимать сообщения и ждёт отправки очереди, пока жив ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for text := range d.queue {
		d.send(text)
	}
}

func (d *Dispatcher) send(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, text); err != nil {
		d.logger.Error("⚠️ notification failed", "error", err)
		return
	}
	d.logger.Debug("✅ notification sent")
}
