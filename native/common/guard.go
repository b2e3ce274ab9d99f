package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a module or token is currently halted.
type PauseView interface {
	IsPaused(name string) (bool, error)
}

// Guard returns ErrModulePaused when the named module is halted.
func Guard(p PauseView, name string) error {
	if p == nil || name == "" {
		return nil
	}
	paused, err := p.IsPaused(name)
	if err != nil {
		return err
	}
	if paused {
		return ErrModulePaused
	}
	return nil
}
