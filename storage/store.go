package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"appointment-watcher/types"
)

// Store хранит лучшую известную запись между перезапусками.
// Save всегда полностью заменяет сохранённое состояние.
type Store interface {
	Load(ctx context.Context) (types.MonitorState, error)
	Save(ctx context.Context, state types.MonitorState) error
}

// record — формат state-файла:
// {"earliest": {"appointment": "07 Abril 08:46", "office": "..."}}
type record struct {
	Earliest *earliestRecord `json:"earliest,omitempty"`
}

type earliestRecord struct {
	Appointment string `json:"appointment"`
	Office      string `json:"office"`
}

func encode(state types.MonitorState) ([]byte, error) {
	var rec record
	if state.Earliest != nil {
		rec.Earliest = &earliestRecord{
			Appointment: state.Earliest.Label,
			Office:      state.Earliest.Office,
		}
	}
	return json.Marshal(rec)
}

// decode восстанавливает дату записи относительно now (год берётся текущий).
func decode(data []byte, now time.Time) (types.MonitorState, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.MonitorState{}, fmt.Errorf("decode state: %w", err)
	}
	if rec.Earliest == nil {
		return types.MonitorState{}, nil
	}
	a, err := types.ParseAppointment(rec.Earliest.Appointment, rec.Earliest.Office, now)
	if err != nil {
		return types.MonitorState{}, fmt.Errorf("decode state: %w", err)
	}
	return types.MonitorState{Earliest: &a}, nil
}
