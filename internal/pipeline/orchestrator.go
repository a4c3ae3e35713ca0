// Package pipeline drives the batch run: fanning dialogue segments out
// to a bounded pool of synthesis workers, reassembling their audio in
// script order, and writing the final artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/truncate"

	"github.com/scriptcast/scriptcast/internal/audio"
	"github.com/scriptcast/scriptcast/internal/script"
	"github.com/scriptcast/scriptcast/internal/synth"
)

// Status tracks a segment through synthesis. Terminal states are final;
// there is no retry at this layer.
type Status int

const (
	StatusPending Status = iota
	StatusChunking
	StatusDispatched
	StatusSucceeded
	StatusFailed
	StatusTimedOut
)

// String returns the status name for logs and reports.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusChunking:
		return "chunking"
	case StatusDispatched:
		return "dispatched"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Result records the outcome for one segment, success or not. The full
// result log always has one entry per input segment, in index order.
type Result struct {
	Index   int
	Speaker string
	Status  Status
	Chunks  int
	Err     error
}

// Orchestrator fans segment chunks out to a fixed pool of workers, each
// owning a private engine handle, and collects per-segment outcomes.
type Orchestrator struct {
	factory   synth.Factory
	workers   int
	chunkSize int
	timeout   time.Duration // per-chunk synthesis deadline
}

// NewOrchestrator builds an orchestrator. workers and chunkSize must be
// positive; timeout zero means no deadline.
func NewOrchestrator(factory synth.Factory, workers, chunkSize int, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		factory:   factory,
		workers:   workers,
		chunkSize: chunkSize,
		timeout:   timeout,
	}
}

// chunkTask is one synthesis call: a slice of a segment's text plus the
// segment's voice. Ordinal preserves chunk order within the segment.
type chunkTask struct {
	seg     *script.Segment
	ordinal int
	text    string
}

// chunkResult is a worker's answer to one chunkTask.
type chunkResult struct {
	index    int
	ordinal  int
	fragment audio.Fragment
	err      error
}

// segmentState aggregates chunk results until a segment is complete.
type segmentState struct {
	seg       *script.Segment
	fragments []audio.Fragment
	remaining int
	err       error
	timedOut  bool
}

// SynthesizeAll runs every segment through the worker pool and returns
// the segments that succeeded, sorted by index, plus the complete
// per-segment result log. Workers complete in arbitrary order; the
// output order never depends on it. One segment failing or timing out
// does not disturb any other segment.
//
// Voice profiles must already be bound on the segments. The returned
// error is non-nil only for pool-level failures (no engine could be
// constructed); per-segment failures live in the result log.
func (o *Orchestrator) SynthesizeAll(ctx context.Context, segments []*script.Segment) ([]*script.Segment, []Result, error) {
	if len(segments) == 0 {
		return nil, nil, nil
	}

	workers := o.workers
	if workers < 1 {
		workers = 1
	}

	// Each worker owns its engine for its whole lifetime; handles are
	// never shared across goroutines.
	engines := make([]synth.Engine, 0, workers)
	for i := 0; i < workers; i++ {
		eng, err := o.factory()
		if err != nil {
			for _, e := range engines {
				e.Close() //nolint:errcheck
			}
			return nil, nil, fmt.Errorf("starting synthesis worker %d: %w", i, err)
		}
		engines = append(engines, eng)
	}

	// Chunk every segment up front; the task list is fixed before any
	// worker starts.
	states := make(map[int]*segmentState, len(segments))
	var tasks []chunkTask
	for _, seg := range segments {
		chunks := script.Chunk(seg.Text, o.chunkSize)
		st := &segmentState{
			seg:       seg,
			fragments: make([]audio.Fragment, len(chunks)),
			remaining: len(chunks),
		}
		states[seg.Index] = st
		for i, c := range chunks {
			tasks = append(tasks, chunkTask{seg: seg, ordinal: i, text: c})
		}
		log.Debug("Segment chunked",
			"index", seg.Index,
			"speaker", seg.Speaker,
			"chunks", len(chunks),
			"text", truncate.StringWithTail(seg.Text, 50, "…"))
	}

	log.Info("Dispatching synthesis tasks",
		"segments", len(segments), "chunks", len(tasks), "workers", workers)

	jobs := make(chan chunkTask)
	results := make(chan chunkResult, len(tasks))

	var wg sync.WaitGroup
	for _, eng := range engines {
		wg.Add(1)
		go func(eng synth.Engine) {
			defer wg.Done()
			defer eng.Close() //nolint:errcheck
			o.runWorker(ctx, eng, jobs, results)
		}(eng)
	}

	go func() {
		defer close(jobs)
		for _, t := range tasks {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Fan-in: aggregate chunk results per segment. Completion order is
	// incidental and discarded here.
	for res := range results {
		st := states[res.index]
		st.remaining--
		if res.err != nil {
			if st.err == nil {
				st.err = res.err
			}
			if errors.Is(res.err, context.DeadlineExceeded) {
				st.timedOut = true
			}
		} else {
			st.fragments[res.ordinal] = res.fragment
		}
	}

	return o.collect(segments, states)
}

// runWorker executes tasks until the job channel closes, applying the
// per-chunk deadline to each synthesis call.
func (o *Orchestrator) runWorker(ctx context.Context, eng synth.Engine, jobs <-chan chunkTask, results chan<- chunkResult) {
	for task := range jobs {
		callCtx := ctx
		cancel := func() {}
		if o.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		}
		fragment, err := eng.Synthesize(callCtx, task.text, task.seg.Voice)
		cancel()

		results <- chunkResult{
			index:    task.seg.Index,
			ordinal:  task.ordinal,
			fragment: fragment,
			err:      err,
		}
	}
}

// collect finalizes segment states into the ordered successful set and
// the full result log.
func (o *Orchestrator) collect(segments []*script.Segment, states map[int]*segmentState) ([]*script.Segment, []Result, error) {
	var successful []*script.Segment
	outcomes := make([]Result, 0, len(segments))

	for _, seg := range segments {
		st := states[seg.Index]
		res := Result{Index: seg.Index, Speaker: seg.Speaker, Chunks: len(st.fragments)}

		switch {
		case st.remaining > 0:
			// Dispatch was cut short by context cancellation.
			res.Status = StatusFailed
			res.Err = fmt.Errorf("segment %d: %w", seg.Index, context.Canceled)
		case st.timedOut:
			res.Status = StatusTimedOut
			res.Err = st.err
		case st.err != nil:
			res.Status = StatusFailed
			res.Err = st.err
		default:
			fragment, err := joinChunks(seg, st.fragments)
			if err != nil {
				res.Status = StatusFailed
				res.Err = err
				break
			}
			seg.Audio = &fragment
			res.Status = StatusSucceeded
			successful = append(successful, seg)
		}

		if res.Err != nil {
			log.Error("Segment not synthesized",
				"index", seg.Index, "speaker", seg.Speaker, "status", res.Status, "err", res.Err)
		} else {
			log.Info("Segment synthesized",
				"index", seg.Index, "speaker", seg.Speaker, "chunks", res.Chunks)
		}
		outcomes = append(outcomes, res)
	}

	// segments arrive in index order already; keep the guarantee even
	// if a caller ever passes them shuffled.
	sort.Slice(successful, func(i, j int) bool { return successful[i].Index < successful[j].Index })
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })

	return successful, outcomes, nil
}

// joinChunks concatenates a segment's chunk fragments in ordinal order.
// All chunks come from one voice on one engine, so their formats must
// already agree; Assemble enforces that.
func joinChunks(seg *script.Segment, fragments []audio.Fragment) (audio.Fragment, error) {
	if len(fragments) == 1 {
		return fragments[0], nil
	}
	entries := make([]audio.Entry, len(fragments))
	for i, f := range fragments {
		entries[i] = audio.Entry{Speaker: seg.Speaker, Fragment: f}
	}
	return audio.Assemble(entries, 0)
}
