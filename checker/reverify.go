package checker

import (
	"context"

	"appointment-watcher/apperr"
	"appointment-watcher/types"
)

// reverify проверяет, что сохранённая лучшая запись всё ещё предлагается.
// Есть — cutoff становится её датой. Нет — состояние очищается и поиск идёт без ограничения.
// Ошибка поиска записи не прерывает цикл: просто ищем без cutoff.
func (c *Checker) reverify(ctx context.Context, src SlotSource, tr *tracker, window *types.SearchWindow) error {
	prev := tr.best()
	if prev == nil {
		return nil
	}

	c.logger.Info("🔁 checking if previous appointment is still available",
		"appointment", prev.Label, "office", prev.Office)

	offered, err := stillOffered(ctx, src, *prev)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = apperr.Wrap(apperr.Reverification, "reverify "+prev.String(), err)
		if apperr.IsKind(err, apperr.CycleFatal) {
			return err
		}
		c.logger.Error("⚠️ error checking previous appointment", "error", err)
		return nil
	}

	if offered {
		c.logger.Info("✅ previous appointment is still available", "cutoff", prev.Date().Format("02/01/2006"))
		window.Tighten(prev.When)
		return nil
	}

	c.logger.Info("❌ previous appointment is no longer available", "appointment", prev.Label, "office", prev.Office)
	return tr.clear(ctx, *prev)
}

// stillOffered ищет точное совпадение "день месяц время" среди слотов того же офиса и дня.
func stillOffered(ctx context.Context, src SlotSource, prev types.Appointment) (bool, error) {
	if err := src.SelectOffice(ctx, prev.Office); err != nil {
		return false, err
	}
	slots, err := src.QueryDate(ctx, prev.Date())
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s.Label() == prev.Label {
			return true, nil
		}
	}
	return false, nil
}
