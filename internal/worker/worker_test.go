package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matsen/bibnote/internal/bib"
)

func TestPostParsesOffThread(t *testing.T) {
	ch := NewChannel()

	resCh, err := ch.Post(context.Background(), Request{
		Raw:    `[{"id": "smith2020", "title": "A Study"}]`,
		Format: bib.FormatCSLJSON,
	})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	res := <-resCh
	if res.Err != nil {
		t.Fatalf("parse: %v", res.Err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(res.Records))
	}
}

func TestPostRejectsWhileBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	ch := NewChannel(WithParseFunc(func(raw string, format bib.Format) ([]bib.RawRecord, error) {
		close(started)
		<-release
		return []bib.RawRecord{{CSL: &bib.CSLRecord{ID: "first"}}}, nil
	}))

	first, err := ch.Post(context.Background(), Request{Raw: "x", Format: bib.FormatCSLJSON})
	if err != nil {
		t.Fatalf("first Post: %v", err)
	}
	<-started

	// Second post while the first is in flight must reject, not queue.
	if _, err := ch.Post(context.Background(), Request{Raw: "y", Format: bib.FormatCSLJSON}); !errors.Is(err, ErrChannelBlocked) {
		t.Fatalf("second Post err = %v, want ErrChannelBlocked", err)
	}

	// The rejection must not disturb the first request's result.
	close(release)
	res := <-first
	if res.Err != nil {
		t.Fatalf("first result: %v", res.Err)
	}
	if len(res.Records) != 1 || res.Records[0].CSL.ID != "first" {
		t.Fatalf("first result overwritten: %+v", res.Records)
	}

	// The channel frees up once the first request completes.
	deadline := time.After(2 * time.Second)
	for ch.Busy() {
		select {
		case <-deadline:
			t.Fatal("channel still busy after first request completed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if _, err := ch.Post(context.Background(), Request{Raw: "z", Format: bib.FormatCSLJSON}); err != nil {
		t.Fatalf("third Post after completion: %v", err)
	}
}

func TestPostParseError(t *testing.T) {
	ch := NewChannel()

	resCh, err := ch.Post(context.Background(), Request{Raw: "{broken", Format: bib.FormatCSLJSON})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	res := <-resCh
	if res.Err == nil {
		t.Fatal("expected parse error")
	}
}

func TestPostParsePanicRecovered(t *testing.T) {
	ch := NewChannel(WithParseFunc(func(raw string, format bib.Format) ([]bib.RawRecord, error) {
		panic("boom")
	}))

	resCh, err := ch.Post(context.Background(), Request{Raw: "x", Format: bib.FormatCSLJSON})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	res := <-resCh
	if res.Err == nil {
		t.Fatal("expected error from panicking parse")
	}

	// Channel must not be wedged after a panic.
	deadline := time.After(2 * time.Second)
	for ch.Busy() {
		select {
		case <-deadline:
			t.Fatal("channel still busy after panic")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPostCancelledContext(t *testing.T) {
	ch := NewChannel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ch.Post(ctx, Request{Raw: "x", Format: bib.FormatCSLJSON}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
