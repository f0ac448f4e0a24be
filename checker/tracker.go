package checker

import (
	"context"
	"log/slog"

	"appointment-watcher/apperr"
	"appointment-watcher/storage"
	"appointment-watcher/types"
)

// tracker держит лучшую запись текущего цикла. Любое изменение сначала
// сохраняется, и только потом уходит уведомление.
//
// При равных датах остаётся запись, найденная раньше (порядок офисов в конфиге,
// затем порядок дней): сравнение строгое.
type tracker struct {
	current  *types.Appointment
	store    storage.Store
	notifier Notifier
	logger   *slog.Logger
}

func newTracker(current *types.Appointment, store storage.Store, notifier Notifier, logger *slog.Logger) *tracker {
	return &tracker{
		current:  current,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

func (t *tracker) best() *types.Appointment {
	if t.current == nil {
		return nil
	}
	a := *t.current
	return &a
}

// observe сравнивает слот с лучшим. true — слот стал новым лучшим.
func (t *tracker) observe(ctx context.Context, a types.Appointment) (bool, error) {
	var msg string
	switch {
	case t.current == nil:
		msg = firstMessage(a)
		t.logger.Info("🎉 first appointment found", "appointment", a.Label, "office", a.Office)
	case a.Before(*t.current):
		msg = earlierMessage(*t.current, a)
		t.logger.Info("🆕 new earlier appointment found", "appointment", a.Label, "office", a.Office,
			"previous", t.current.Label, "previous_office", t.current.Office)
	default:
		return false, nil
	}

	if err := t.persist(ctx, types.MonitorState{Earliest: &a}); err != nil {
		return false, err
	}
	t.current = &a
	t.notifier.Notify(msg)
	return true, nil
}

// clear забывает лучшую запись, когда её больше нет на портале.
func (t *tracker) clear(ctx context.Context, lost types.Appointment) error {
	if err := t.persist(ctx, types.MonitorState{}); err != nil {
		return err
	}
	t.current = nil
	t.notifier.Notify(lostMessage(lost))
	return nil
}

// persist пишет состояние даже если ctx уже отменён: остановка не должна
// терять запись, о которой оператор сейчас узнает.
func (t *tracker) persist(ctx context.Context, state types.MonitorState) error {
	if err := t.store.Save(context.WithoutCancel(ctx), state); err != nil {
		return apperr.Wrap(apperr.CycleFatal, "save state", err)
	}
	return nil
}
