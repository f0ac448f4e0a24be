package checker

import (
	"fmt"

	"appointment-watcher/types"
)

func firstMessage(a types.Appointment) string {
	return fmt.Sprintf("First appointment found!\nDate: %s", a)
}

func earlierMessage(prev, next types.Appointment) string {
	return fmt.Sprintf("New earlier appointment found!\nPrevious: %s\nNew: %s", prev, next)
}

func lostMessage(a types.Appointment) string {
	return fmt.Sprintf("Previous appointment is no longer available!\nLost appointment: %s\nSearching for new earlier appointment...", a)
}

// ErrorMessage — текст уведомления о фатальной ошибке.
func ErrorMessage(err error) string {
	return fmt.Sprintf("Error en el checker: %v", err)
}
