package checker

import (
	"context"
	"sort"

	"appointment-watcher/apperr"
	"appointment-watcher/types"
)

const dateLayout = "02/01/2006"

// search обходит офисы в порядке конфига и дни от сегодня. Каждый слот сразу
// сравнивается с лучшим, поэтому уведомление и запись состояния не ждут конца обхода.
// Дни после cutoff не запрашиваются; улучшение в середине цикла сдвигает cutoff.
func (c *Checker) search(ctx context.Context, src SlotSource, tr *tracker, window *types.SearchWindow) (map[string][]types.Appointment, error) {
	found := make(map[string][]types.Appointment)
	today := types.DayOf(c.now())

	for _, office := range c.cfg.Offices {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		c.logger.Info("🏢 checking office", "office", office)
		if err := src.SelectOffice(ctx, office); err != nil {
			if ctx.Err() != nil {
				return found, ctx.Err()
			}
			err = apperr.Wrap(apperr.Transient, "select office "+office, err)
			if apperr.IsKind(err, apperr.CycleFatal) {
				return found, err
			}
			c.logger.Error("⚠️ error checking office", "office", office, "error", err)
			continue
		}

		officeAppts := make([]types.Appointment, 0)
		for i := 0; i < window.DaysToSearch; i++ {
			date := today.AddDate(0, 0, i)
			if !window.Allows(date) {
				c.logger.Info("⏭ skipping remaining dates after current appointment",
					"office", office, "cutoff", window.Cutoff.Format(dateLayout))
				break
			}
			if err := ctx.Err(); err != nil {
				return found, err
			}

			slots, err := src.QueryDate(ctx, date)
			if err != nil {
				if ctx.Err() != nil {
					return found, ctx.Err()
				}
				err = apperr.Wrap(apperr.Transient, "query "+date.Format(dateLayout)+" for "+office, err)
				if apperr.IsKind(err, apperr.CycleFatal) {
					return found, err
				}
				c.logger.Error("⚠️ error checking date", "office", office, "date", date.Format(dateLayout), "error", err)
				continue
			}

			for _, raw := range slots {
				a, err := c.parse(raw, office)
				if err != nil {
					c.logger.Error("⚠️ error processing appointment data", "office", office, "slot", raw.Label(), "error", err)
					continue
				}

				improved, err := tr.observe(ctx, a)
				if err != nil {
					return found, err
				}
				if improved {
					window.Tighten(a.When)
				}
				officeAppts = append(officeAppts, a)
			}
		}

		if len(officeAppts) > 0 {
			sort.SliceStable(officeAppts, func(i, j int) bool {
				return officeAppts[i].Before(officeAppts[j])
			})
			found[office] = officeAppts
			c.logger.Info("✅ found appointments", "office", office, "count", len(officeAppts))
		}
	}

	return found, nil
}

// parse собирает запись из карточки. Год берётся текущий; слот в прошлом
// (например, "Enero", увиденный в декабре) либо переносится на следующий год
// при RolloverYear, либо остаётся как есть с предупреждением в логе.
func (c *Checker) parse(raw types.RawSlot, office string) (types.Appointment, error) {
	return c.resolve(raw.Label(), office)
}

// resolve датирует строку слота по часам checker'а. Через него же проходит
// запись, прочитанная из хранилища: там лежит только строка, без года.
func (c *Checker) resolve(label, office string) (types.Appointment, error) {
	now := c.now()
	a, err := types.ParseAppointment(label, office, now)
	if err != nil {
		return types.Appointment{}, err
	}
	if !types.IsPast(a, now) {
		return a, nil
	}
	if c.cfg.RolloverYear {
		if moved, ok := types.NextYear(a); ok {
			return moved, nil
		}
	}
	c.logger.Warn("⚠️ appointment dated in the past, year assumed current", "slot", a.Label, "office", office)
	return a, nil
}
