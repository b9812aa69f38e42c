package deleter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"sync"
	"testing"
	"time"

	"spacefree/internal/fsops"
	"spacefree/internal/safety"
	"spacefree/internal/scan"
)

// No metrics setup here: New must register the counters itself, so these
// tests double as coverage for that.

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testValidator() *safety.Validator {
	return safety.NewValidator([]string{"/data"}, nil)
}

func candidates(n int) []scan.File {
	files := make([]scan.File, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, scan.File{Path: fmt.Sprintf("/data/f%02d", i), Size: 10})
	}
	return files
}

func TestDryRunNeverMutates(t *testing.T) {
	fake := &fsops.FakeRemover{}
	d := New(Config{
		Mode:      DryRun,
		Remover:   fake,
		Validator: testValidator(),
		Workers:   4,
		Logger:    quietLogger(),
	})

	out := d.Run(context.Background(), candidates(10))

	if calls := fake.Calls(); len(calls) != 0 {
		t.Errorf("dry-run made %d remover calls: %v", len(calls), calls)
	}
	if out.Succeeded != 10 || out.Failed != 0 {
		t.Errorf("outcome = %+v, want 10 succeeded", out)
	}
	if out.BytesFreed != 100 {
		t.Errorf("BytesFreed = %d, want 100", out.BytesFreed)
	}
}

func TestOneFailureDoesNotStopTheRest(t *testing.T) {
	files := candidates(10)
	fake := &fsops.FakeRemover{
		Errs: map[string]error{files[3].Path: errors.New("permission denied")},
	}
	d := New(Config{
		Mode:      Permanent,
		Remover:   fake,
		Validator: testValidator(),
		Workers:   4,
		Logger:    quietLogger(),
	})

	out := d.Run(context.Background(), files)

	if out.Succeeded != 9 || out.Failed != 1 {
		t.Errorf("outcome = %+v, want 9 succeeded / 1 failed", out)
	}
	if got := len(fake.Calls()); got != 10 {
		t.Errorf("remover calls = %d, want all 10 attempted", got)
	}
	if out.BytesFreed != 90 {
		t.Errorf("BytesFreed = %d, want 90", out.BytesFreed)
	}
}

func TestVanishedFileIsSkippedNotFailed(t *testing.T) {
	files := candidates(3)
	fake := &fsops.FakeRemover{
		Errs: map[string]error{files[1].Path: fs.ErrNotExist},
	}
	d := New(Config{
		Mode:      Permanent,
		Remover:   fake,
		Validator: testValidator(),
		Workers:   2,
		Logger:    quietLogger(),
	})

	out := d.Run(context.Background(), files)

	if out.Succeeded != 2 || out.Failed != 0 || out.SkippedMissing != 1 {
		t.Errorf("outcome = %+v, want 2 succeeded / 0 failed / 1 skipped", out)
	}
	if out.BytesFreed != 20 {
		t.Errorf("BytesFreed = %d, want 20", out.BytesFreed)
	}
}

func TestTrashModeUsesTrash(t *testing.T) {
	fake := &fsops.FakeRemover{}
	d := New(Config{
		Mode:      Trash,
		Remover:   fake,
		Validator: testValidator(),
		Workers:   1,
		Logger:    quietLogger(),
	})

	d.Run(context.Background(), candidates(2))

	for _, c := range fake.Calls() {
		if c[:6] != "trash:" {
			t.Errorf("call %q, want trash operations only", c)
		}
	}
}

// boundedRemover fails the test if more than limit removals are ever in
// flight at once.
type boundedRemover struct {
	mu      sync.Mutex
	current int
	max     int
}

func (b *boundedRemover) enter() {
	b.mu.Lock()
	b.current++
	if b.current > b.max {
		b.max = b.current
	}
	b.mu.Unlock()
	time.Sleep(2 * time.Millisecond)
	b.mu.Lock()
	b.current--
	b.mu.Unlock()
}

func (b *boundedRemover) Remove(string) error { b.enter(); return nil }
func (b *boundedRemover) Trash(string) error  { b.enter(); return nil }

func TestParallelismBound(t *testing.T) {
	const workers = 4
	bounded := &boundedRemover{}
	d := New(Config{
		Mode:      Permanent,
		Remover:   bounded,
		Validator: testValidator(),
		Workers:   workers,
		Logger:    quietLogger(),
	})

	out := d.Run(context.Background(), candidates(40))

	if out.Succeeded != 40 {
		t.Errorf("Succeeded = %d, want 40", out.Succeeded)
	}
	if bounded.max > workers {
		t.Errorf("max in-flight = %d, want <= %d", bounded.max, workers)
	}
}

func TestValidatorBlocksOutsideRoots(t *testing.T) {
	fake := &fsops.FakeRemover{}
	d := New(Config{
		Mode:      Permanent,
		Remover:   fake,
		Validator: testValidator(),
		Workers:   1,
		Logger:    quietLogger(),
	})

	out := d.Run(context.Background(), []scan.File{{Path: "/elsewhere/x", Size: 1}})

	if out.Failed != 1 || out.Succeeded != 0 {
		t.Errorf("outcome = %+v, want the out-of-root path to fail", out)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("remover should never see an unvalidated path: %v", fake.Calls())
	}
}

// recordSink captures Recorder calls for assertions.
type recordSink struct {
	mu      sync.Mutex
	actions map[string]int
}

func (r *recordSink) Record(action, path string, size uint64, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.actions == nil {
		r.actions = make(map[string]int)
	}
	r.actions[action]++
	return nil
}

func TestRecorderSeesEveryOutcome(t *testing.T) {
	files := candidates(5)
	fake := &fsops.FakeRemover{
		Errs: map[string]error{
			files[0].Path: errors.New("busy"),
			files[1].Path: fs.ErrNotExist,
		},
	}
	sink := &recordSink{}
	d := New(Config{
		Mode:      Permanent,
		Remover:   fake,
		Validator: testValidator(),
		Workers:   2,
		Logger:    quietLogger(),
		Recorder:  sink,
	})

	d.Run(context.Background(), files)

	if sink.actions["DELETE"] != 3 || sink.actions["ERROR"] != 1 || sink.actions["SKIP_MISSING"] != 1 {
		t.Errorf("recorded actions = %v", sink.actions)
	}
}

func TestProgressCallbackRunsPerFile(t *testing.T) {
	var mu sync.Mutex
	seen := 0
	d := New(Config{
		Mode:      DryRun,
		Remover:   &fsops.FakeRemover{},
		Validator: testValidator(),
		Workers:   3,
		Logger:    quietLogger(),
		Progress: func(scan.File) {
			mu.Lock()
			seen++
			mu.Unlock()
		},
	})

	d.Run(context.Background(), candidates(7))

	if seen != 7 {
		t.Errorf("progress callbacks = %d, want 7", seen)
	}
}

func TestCancelledContextStopsFeeding(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fsops.FakeRemover{}
	d := New(Config{
		Mode:      Permanent,
		Remover:   fake,
		Validator: testValidator(),
		Workers:   2,
		Logger:    quietLogger(),
	})

	out := d.Run(ctx, candidates(100))

	if total := out.Succeeded + out.Failed + out.SkippedMissing; total == 100 {
		t.Error("cancelled run should not process the full candidate list")
	}
}
