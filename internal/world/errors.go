package world

import "errors"

// Ошибки жизненного цикла менеджера мира
var (
	ErrAlreadyGenerated = errors.New("world: already generated")
	ErrNotGenerated     = errors.New("world: not generated")
	ErrDisposed         = errors.New("world: manager disposed")

	ErrInteractableNotFound = errors.New("world: interactable not found")
)
