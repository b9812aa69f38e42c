package fsops

// Remover abstracts the mutating filesystem operations
// Enables mocking in tests to prove dry-run never deletes
type Remover interface {
	Remove(path string) error
	Trash(path string) error
}
