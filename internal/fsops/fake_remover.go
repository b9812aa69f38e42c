package fsops

import "sync"

// FakeRemover implements Remover for testing
// Records all calls without touching the filesystem. Safe for concurrent use
// so worker-pool tests can share one instance.
type FakeRemover struct {
	mu    sync.Mutex
	calls []string

	// Errs maps a path to the error its removal should return.
	Errs map[string]error
}

func (f *FakeRemover) Remove(path string) error {
	return f.record("rm:"+path, path)
}

func (f *FakeRemover) Trash(path string) error {
	return f.record("trash:"+path, path)
}

func (f *FakeRemover) record(call, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.Errs != nil {
		return f.Errs[path]
	}
	return nil
}

// Calls returns a copy of the recorded calls in order.
func (f *FakeRemover) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
