package directory

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClient struct {
	mu      sync.Mutex
	pages   [][]Entry
	calls   int
	closed  bool
	lastMin int64
}

func (f *fakeClient) SearchChangelog(_ context.Context, req SearchRequest) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastMin = req.MinChangeNumber
	if f.calls >= len(f.pages) {
		return nil, nil
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestGetNextDrainsBufferBeforeRepolling(t *testing.T) {
	client := &fakeClient{
		pages: [][]Entry{
			{{ChangeNumber: 1}, {ChangeNumber: 2}},
		},
	}
	obs := &recordingObserver{}
	p := NewPoller(client, PollerConfig{PollInterval: 10 * time.Millisecond}, nil)
	p.Subscribe(obs)

	ctx := context.Background()
	e1, err := p.GetNext(ctx)
	if err != nil || e1.ChangeNumber != 1 {
		t.Fatalf("GetNext() = %+v, %v", e1, err)
	}
	e2, err := p.GetNext(ctx)
	if err != nil || e2.ChangeNumber != 2 {
		t.Fatalf("GetNext() = %+v, %v", e2, err)
	}

	if client.calls != 1 {
		t.Fatalf("expected one search call while buffer had entries, got %d", client.calls)
	}
	if client.lastMin != 1 {
		t.Fatalf("expected search to start at changenumber 1, got %d", client.lastMin)
	}
}

func TestGetNextEmitsFreshOnEmptyPoll(t *testing.T) {
	client := &fakeClient{pages: [][]Entry{{}}}
	obs := &recordingObserver{}
	p := NewPoller(client, PollerConfig{PollInterval: 5 * time.Millisecond}, nil)
	p.Subscribe(obs)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.GetNext(ctx)
	if err == nil {
		t.Fatalf("expected ctx deadline error when changelog never yields an entry")
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.events) == 0 || obs.events[0] != EventFresh {
		t.Fatalf("expected first event to be fresh, got %v", obs.events)
	}
}

func TestNextChangeNumberAdvancesPastLastDelivered(t *testing.T) {
	client := &fakeClient{pages: [][]Entry{{{ChangeNumber: 5}}}}
	p := NewPoller(client, PollerConfig{PollInterval: time.Millisecond, StartChangeNumber: 3}, nil)

	if _, err := p.GetNext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if client.lastMin != 4 {
		t.Fatalf("expected first search to start at 4 (StartChangeNumber+1), got %d", client.lastMin)
	}
	if p.nextCn != 6 {
		t.Fatalf("nextCn = %d, want 6", p.nextCn)
	}
}

func TestClosePropagatesToClient(t *testing.T) {
	client := &fakeClient{}
	p := NewPoller(client, PollerConfig{PollInterval: time.Millisecond}, nil)
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !client.closed {
		t.Fatalf("expected Close to close underlying client")
	}
}
