package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/halcore"
)

type fakeAdaptor struct {
	id          string
	delay       time.Duration
	triggerErrs []error // consumed one per Trigger; nil entries succeed
	collectErrs int     // number of consecutive ErrNotReady before success
	failErr     error
	triggers    int
}

func (f *fakeAdaptor) ID() string                      { return f.id }
func (f *fakeAdaptor) Capabilities() []halcore.CapInfo { return nil }
func (f *fakeAdaptor) Trigger(ctx context.Context) (time.Duration, error) {
	f.triggers++
	if f.failErr != nil {
		return 0, f.failErr
	}
	if len(f.triggerErrs) > 0 {
		err := f.triggerErrs[0]
		f.triggerErrs = f.triggerErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	return f.delay, nil
}
func (f *fakeAdaptor) Collect(ctx context.Context) (halcore.Sample, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	if f.collectErrs > 0 {
		f.collectErrs--
		return nil, halcore.ErrNotReady
	}
	return halcore.Sample{{Kind: "temperature", Payload: 251, TsMs: time.Now().UnixMilli()}}, nil
}
func (f *fakeAdaptor) Control(string, string, any) (any, error) { return nil, halcore.ErrUnsupported }

func fastConfig() halcore.WorkerConfig {
	return halcore.WorkerConfig{
		TriggerTimeout: 5 * time.Millisecond,
		CollectTimeout: 10 * time.Millisecond,
		RetryBackoff:   2 * time.Millisecond,
		MaxRetries:     5,
		InputQueueSize: 4,
	}
}

func waitResult(t *testing.T, results <-chan halcore.Result) halcore.Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for result")
	}
	return halcore.Result{}
}

func TestMeasureWorkerSuccessWithRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan halcore.Result, 1)
	w := New(fastConfig(), results)
	w.Start(ctx)

	ad := &fakeAdaptor{id: "dev1", delay: 1 * time.Millisecond, collectErrs: 2}
	if !w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}) {
		t.Fatal("submit failed")
	}
	if r := waitResult(t, results); r.Err != nil || len(r.Sample) == 0 {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestMeasureWorkerRetriggersTransientDecodeErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan halcore.Result, 1)
	w := New(fastConfig(), results)
	w.Start(ctx)

	ad := &fakeAdaptor{id: "dht0", triggerErrs: []error{
		&errcode.E{C: errcode.ChecksumMismatch},
		errcode.InsufficientData,
	}}
	if !w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}) {
		t.Fatal("submit failed")
	}
	r := waitResult(t, results)
	if r.Err != nil || r.ID != "dht0" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if ad.triggers != 3 {
		t.Fatalf("triggers = %d, want 3", ad.triggers)
	}
}

func TestMeasureWorkerGivesUpAfterMaxRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan halcore.Result, 1)
	cfg := fastConfig()
	cfg.MaxRetries = 2
	w := New(cfg, results)
	w.Start(ctx)

	ad := &fakeAdaptor{id: "dht0", failErr: errcode.InsufficientData}
	if !w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}) {
		t.Fatal("submit failed")
	}
	r := waitResult(t, results)
	if !errors.Is(r.Err, errcode.InsufficientData) {
		t.Fatalf("err = %v, want insufficient_data", r.Err)
	}
	if ad.triggers != 3 {
		t.Fatalf("triggers = %d, want 3", ad.triggers)
	}
}

func TestMeasureWorkerErrorPathAndPrio(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan halcore.Result, 2)
	w := New(halcore.WorkerConfig{}, results)
	w.Start(ctx)

	ad := &fakeAdaptor{id: "devX", delay: 1 * time.Millisecond, failErr: errors.New("boom")}
	if !w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}) {
		t.Fatal("submit failed")
	}
	if !w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad, Prio: true}) {
		t.Fatal("prio submit failed")
	}

	if r := waitResult(t, results); r.Err == nil {
		t.Fatalf("expected error result, got %+v", r)
	}
}

func TestMeasureWorkerPrioWhilePending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan halcore.Result, 2)
	w := New(fastConfig(), results)

	// Queue both before the loop starts so the second lands while the first
	// cycle is pending.
	ad := &fakeAdaptor{id: "dht0", delay: 5 * time.Millisecond}
	if !w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}) {
		t.Fatal("submit failed")
	}
	if !w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad, Prio: true}) {
		t.Fatal("prio submit failed")
	}
	w.Start(ctx)

	for i := 0; i < 2; i++ {
		if r := waitResult(t, results); r.Err != nil {
			t.Fatalf("result %d: %+v", i, r)
		}
	}
	if ad.triggers != 2 {
		t.Fatalf("triggers = %d, want 2", ad.triggers)
	}
}

func TestMeasureWorkerWaitsForSlowSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan halcore.Result) // unbuffered
	w := New(fastConfig(), results)
	w.Start(ctx)

	ad := &fakeAdaptor{id: "dev1", delay: time.Millisecond}
	if !w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}) {
		t.Fatal("submit failed")
	}
	time.Sleep(20 * time.Millisecond)
	if r := waitResult(t, results); r.Err != nil || r.ID != "dev1" {
		t.Fatalf("unexpected result: %+v", r)
	}
}
