package apperr

import "errors"

// Kind классифицирует ошибку по тому, как на неё реагирует цикл проверки.
type Kind int

const (
	// Transient — сбой одного запроса (офис/дата), пропускаем и идём дальше.
	Transient Kind = iota + 1
	// Reverification — не удалось перепроверить сохранённую запись, ищем без cutoff.
	Reverification
	// CycleFatal — сессия или коллаборатор непригодны, текущий цикл прерывается.
	CycleFatal
	// ConfigFatal — не хватает обязательных настроек, в цикл не входим.
	ConfigFatal
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Reverification:
		return "reverification"
	case CycleFatal:
		return "cycle-fatal"
	case ConfigFatal:
		return "config-fatal"
	default:
		return "unknown"
	}
}

// Error несёт вид ошибки и операцию, на которой она возникла.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap оборачивает err в Error заданного вида. Уже классифицированную
// ошибку не переклассифицирует.
func Wrap(kind Kind, op string, err error) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Kind: existing.Kind, Op: op, Err: err}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf возвращает вид ошибки или 0, если ошибка не классифицирована.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

// IsKind — относится ли err к виду kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
