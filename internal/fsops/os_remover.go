package fsops

import (
	"os"

	"spacefree/internal/trash"
)

// OSRemover implements Remover using real filesystem calls
type OSRemover struct{}

func (OSRemover) Remove(path string) error {
	return os.Remove(path)
}

func (OSRemover) Trash(path string) error {
	return trash.Move(path)
}
