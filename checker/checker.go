package checker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"appointment-watcher/apperr"
	"appointment-watcher/storage"
	"appointment-watcher/types"
)

// SlotSource — сессия портала с текущим выбранным офисом.
type SlotSource interface {
	SelectOffice(ctx context.Context, office string) error
	QueryDate(ctx context.Context, date time.Time) ([]types.RawSlot, error)
}

// Session — SlotSource, который нужно закрыть после цикла.
type Session interface {
	SlotSource
	Close() error
}

// SessionFactory логинится и возвращает готовую к запросам сессию.
type SessionFactory func(ctx context.Context) (Session, error)

// Notifier доставляет сообщение оператору без гарантий и без блокировки.
type Notifier interface {
	Notify(text string)
}

// Config — параметры поиска.
type Config struct {
	Offices      []string
	DaysToSearch int
	WaitTime     time.Duration
	// RolloverYear переносит слоты, оказавшиеся в прошлом, на следующий год.
	RolloverYear bool
}

// Phase — состояние цикла мониторинга.
type Phase int32

const (
	Idle Phase = iota
	Scanning
)

func (p Phase) String() string {
	if p == Scanning {
		return "scanning"
	}
	return "idle"
}

// Report — результат одного цикла.
type Report struct {
	Appointments map[string][]types.Appointment // офис -> слоты по возрастанию даты
	Earliest     *types.Appointment
	Cutoff       *time.Time
}

type Checker struct {
	store    storage.Store
	notifier Notifier
	open     SessionFactory
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	phase atomic.Int32
}

func New(store storage.Store, notifier Notifier, open SessionFactory, cfg Config, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		store:    store,
		notifier: notifier,
		open:     open,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Phase можно читать из других горутин (например, из обработчика /status).
func (c *Checker) Phase() Phase {
	return Phase(c.phase.Load())
}

// Run повторяет циклы проверки с паузой WaitTime, пока не отменён ctx.
// Ошибка цикла не останавливает процесс: она логируется, оператору уходит
// уведомление, следующий цикл начинается с новой сессией.
func (c *Checker) Run(ctx context.Context) error {
	c.logger.Info("🔍 checker service started",
		"offices", len(c.cfg.Offices),
		"days_to_search", c.cfg.DaysToSearch,
		"wait", c.cfg.WaitTime)

	for {
		c.phase.Store(int32(Scanning))
		report, err := c.RunCycle(ctx)
		c.phase.Store(int32(Idle))

		if ctx.Err() != nil {
			c.logger.Info("🛑 shutdown requested, stopping checker")
			return nil
		}
		if err != nil {
			c.logger.Error("❌ check cycle failed", "kind", apperr.KindOf(err).String(), "error", err)
			c.notifier.Notify(ErrorMessage(err))
		} else {
			c.logReport(report)
		}

		c.logger.Info("😴 waiting before next run", "wait", c.cfg.WaitTime)
		t := time.NewTimer(c.cfg.WaitTime)
		select {
		case <-ctx.Done():
			t.Stop()
			c.logger.Info("🛑 shutdown requested, stopping checker")
			return nil
		case <-t.C:
		}
	}
}

// RunCycle — один проход: загрузка состояния, перепроверка, поиск.
func (c *Checker) RunCycle(ctx context.Context) (Report, error) {
	c.logger.Info("🔍 running appointment check", "offices", len(c.cfg.Offices))

	state, err := c.store.Load(ctx)
	if err != nil {
		return Report{}, apperr.Wrap(apperr.CycleFatal, "load state", err)
	}
	if state.Earliest != nil {
		a, err := c.resolve(state.Earliest.Label, state.Earliest.Office)
		if err != nil {
			return Report{}, apperr.Wrap(apperr.CycleFatal, "load state", err)
		}
		state.Earliest = &a
	}

	session, err := c.open(ctx)
	if err != nil {
		return Report{}, apperr.Wrap(apperr.CycleFatal, "open portal session", err)
	}
	defer func() {
		c.logger.Info("🔒 closing portal session")
		if err := session.Close(); err != nil {
			c.logger.Warn("⚠️ error closing session", "error", err)
		}
	}()

	window := types.SearchWindow{DaysToSearch: c.cfg.DaysToSearch}
	tr := newTracker(state.Earliest, c.store, c.notifier, c.logger)

	if err := c.reverify(ctx, session, tr, &window); err != nil {
		return Report{Earliest: tr.best()}, err
	}

	found, err := c.search(ctx, session, tr, &window)
	return Report{
		Appointments: found,
		Earliest:     tr.best(),
		Cutoff:       window.Cutoff,
	}, err
}

func (c *Checker) logReport(r Report) {
	if len(r.Appointments) == 0 {
		c.logger.Info("📭 no available appointments found")
		return
	}
	c.logger.Info("📬 available appointments found")
	for _, office := range c.cfg.Offices {
		if appts, ok := r.Appointments[office]; ok {
			c.logger.Info("  → office summary", "office", office, "appointments", len(appts), "first", appts[0].Label)
		}
	}
}
