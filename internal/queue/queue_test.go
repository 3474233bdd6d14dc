package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"photoflow/internal/model"
)

func init() {
	zlog.Init()
}

type fakeRunner struct {
	mu   sync.Mutex
	ran  []uuid.UUID
	fail map[uuid.UUID]error
}

func (r *fakeRunner) Run(_ context.Context, job model.Job, progress func(float64)) (*model.Result, error) {
	r.mu.Lock()
	r.ran = append(r.ran, job.ID)
	r.mu.Unlock()

	if err, ok := r.fail[job.ID]; ok {
		return nil, err
	}

	progress(0.5)
	progress(1)

	return &model.Result{OutputPath: "processed/" + job.ID.String() + ".jpg"}, nil
}

func (r *fakeRunner) order() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.ran...)
}

func job(priority model.Priority) model.Job {
	return model.Job{ID: uuid.New(), Priority: priority}
}

func TestEnqueueOrdering(t *testing.T) {
	q := New(&fakeRunner{})

	a := job(model.PriorityNormal)
	b := job(model.PriorityLow)
	c := job(model.PriorityNormal)
	d := job(model.PriorityHigh)

	for _, j := range []model.Job{a, b, c, d} {
		if err := q.Enqueue(j, Callbacks{}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	// c slots in before the trailing low job, d jumps to the front.
	want := []uuid.UUID{d.ID, a.ID, c.ID, b.ID}
	got := q.Pending()

	if len(got) != len(want) {
		t.Fatalf("pending length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pending[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNormalInsertsBeforeTrailingLow(t *testing.T) {
	q := New(&fakeRunner{})

	l1 := job(model.PriorityLow)
	l2 := job(model.PriorityLow)
	n := job(model.PriorityNormal)

	for _, j := range []model.Job{l1, l2, n} {
		if err := q.Enqueue(j, Callbacks{}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	want := []uuid.UUID{n.ID, l1.ID, l2.ID}
	got := q.Pending()

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pending = %v, want %v", got, want)
		}
	}
}

func TestWorkerDrainsAndFiresCallbacks(t *testing.T) {
	r := &fakeRunner{}
	q := New(r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go q.Run(ctx, &wg)

	done := make(chan uuid.UUID, 3)
	var progressMu sync.Mutex
	progressed := map[uuid.UUID][]float64{}

	cb := Callbacks{
		OnProgress: func(id uuid.UUID, f float64) {
			progressMu.Lock()
			progressed[id] = append(progressed[id], f)
			progressMu.Unlock()
		},
		OnComplete: func(id uuid.UUID, res *model.Result) {
			if res == nil || res.OutputPath == "" {
				t.Errorf("empty result for job %s", id)
			}
			done <- id
		},
		OnError: func(id uuid.UUID, err error) {
			t.Errorf("unexpected error for job %s: %v", id, err)
		},
	}

	jobs := []model.Job{job(model.PriorityNormal), job(model.PriorityHigh), job(model.PriorityLow)}
	for _, j := range jobs {
		if err := q.Enqueue(j, cb); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	for i := 0; i < len(jobs); i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for jobs to complete")
		}
	}

	progressMu.Lock()
	for id, fractions := range progressed {
		if len(fractions) == 0 || fractions[len(fractions)-1] != 1 {
			t.Errorf("job %s progress = %v, want final 1", id, fractions)
		}
	}
	progressMu.Unlock()

	cancel()
	wg.Wait()

	if err := q.Enqueue(job(model.PriorityNormal), Callbacks{}); !errors.Is(err, ErrClosed) {
		t.Errorf("enqueue after stop = %v, want ErrClosed", err)
	}
}

func TestWorkerReportsJobError(t *testing.T) {
	boom := errors.New("boom")
	j := job(model.PriorityNormal)

	r := &fakeRunner{fail: map[uuid.UUID]error{j.ID: boom}}
	q := New(r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go q.Run(ctx, &wg)

	failed := make(chan error, 1)
	cb := Callbacks{
		OnComplete: func(id uuid.UUID, _ *model.Result) {
			t.Errorf("job %s completed, want failure", id)
		},
		OnError: func(_ uuid.UUID, err error) { failed <- err },
	}

	if err := q.Enqueue(j, cb); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case err := <-failed:
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job failure")
	}

	cancel()
	wg.Wait()
}
