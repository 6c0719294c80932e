package world

// State: состояние жизненного цикла менеджера
type State uint8

const (
	StateUninitialized State = iota
	StateGenerated
	StateExpanded
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateGenerated:
		return "generated"
	case StateExpanded:
		return "expanded"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// MarshalText для JSON-ответов
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// live сообщает, построен ли мир
func (s State) live() bool {
	return s == StateGenerated || s == StateExpanded
}
