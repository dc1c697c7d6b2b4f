package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"example.com/finance-tracker-bot/backend/internal/bot"
)

var (
	ErrQueueFull = errors.New("dispatch queue is full")
	ErrStopped   = errors.New("dispatcher is stopped")
)

const defaultHandleTimeout = 30 * time.Second

type Handler interface {
	Handle(ctx context.Context, ev bot.Event)
}

// Dispatcher раздает события воркерам так, что события одного чата всегда идут одному воркеру по порядку.
type Dispatcher struct {
	handler       Handler
	queues        []chan bot.Event
	logger        *slog.Logger
	handleTimeout time.Duration

	mu       sync.RWMutex
	stopped  bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New создает диспетчер с workers очередями по queueSize событий на все воркеры.
func New(handler Handler, workers, queueSize int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < workers {
		queueSize = workers
	}
	if logger == nil {
		logger = slog.Default()
	}

	queues := make([]chan bot.Event, workers)
	for i := range queues {
		queues[i] = make(chan bot.Event, queueSize/workers)
	}

	return &Dispatcher{
		handler:       handler,
		queues:        queues,
		logger:        logger,
		handleTimeout: defaultHandleTimeout,
	}
}

// Start запускает воркеры. Контекст ограничивает обработку каждого события.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, queue := range d.queues {
		d.wg.Add(1)
		go func(worker int, queue <-chan bot.Event) {
			defer d.wg.Done()
			for ev := range queue {
				d.process(ctx, worker, ev)
			}
		}(i, queue)
	}
}

// Enqueue ставит событие в очередь чата, не блокируясь.
func (d *Dispatcher) Enqueue(ev bot.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queues[d.shard(ev.ChatID)] <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop перестает принимать события и ждет обработки уже поставленных.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		for _, queue := range d.queues {
			close(queue)
		}
		d.mu.Unlock()

		d.wg.Wait()
	})
}

func (d *Dispatcher) shard(chatID int64) int {
	n := int64(len(d.queues))
	idx := chatID % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

func (d *Dispatcher) process(ctx context.Context, worker int, ev bot.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("event handler panicked",
				slog.Int("worker", worker),
				slog.Int64("chat_id", ev.ChatID),
				slog.Any("panic", rec),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.handleTimeout)
	defer cancel()

	d.handler.Handle(ctx, ev)
}
