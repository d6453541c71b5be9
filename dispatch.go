package promptpoll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var (
	ErrInvalidCount       = errors.New("call count must be a positive integer")
	ErrInvalidParallelism = errors.New("max parallel calls must be a positive integer")
)

// CallResult: The outcome of one call. Index is the 1-based position requested by the caller, not the completion order.
type CallResult struct {
	Index    int    `json:"index"`
	Response string `json:"response"`
	Err      error  `json:"error,omitempty"`
}

// OK reports whether the call produced an answer.
func (r CallResult) OK() bool {
	return r.Err == nil
}

// Text renders the result as stored: the answer, or "Error: <reason>".
func (r CallResult) Text() string {
	if r.Err != nil {
		return "Error: " + r.Err.Error()
	}
	return r.Response
}

// ResultSet: Results ordered by Index, 1..n with none missing.
type ResultSet []CallResult

// Failed counts the results that carry an error.
func (rs ResultSet) Failed() int {
	failed := 0
	for _, r := range rs {
		if r.Err != nil {
			failed++
		}
	}
	return failed
}

// Observer is called from a single goroutine after each completion, in completion order.
type Observer func(completed, total int, result CallResult)

// Poller: The main struct responsible for dispatching batches, reporting progress and recording metrics.
type Poller struct {
	Settings  Settings
	Transport Transport
	Progress  *mpb.Progress
	Metrics   *Metrics
	Observer  Observer
	Logger    Logger
}

// NewPoller: Creates a Poller sending through transport, with an optional progress container and logger.
func NewPoller(settings Settings, transport Transport, progress *mpb.Progress, optLogger Logger) *Poller {
	var logger Logger
	if optLogger != nil {
		logger = optLogger
	} else {
		logger = &noOpLogger{}
	}
	return &Poller{Settings: settings, Transport: transport, Progress: progress, Logger: logger}
}

// Run dispatches n calls of spec using the Settings' MaxParallel bound.
func (p *Poller) Run(ctx context.Context, spec RequestSpec, n int) (ResultSet, error) {
	return p.Dispatch(ctx, spec, n, p.Settings.MaxParallel)
}

// Dispatch: Issues n independent calls of spec with at most min(n, maxParallel) in flight and blocks until every call has a result.
// Per-call failures are recorded on the corresponding CallResult; an error is returned only when the batch cannot start.
func (p *Poller) Dispatch(ctx context.Context, spec RequestSpec, n, maxParallel int) (ResultSet, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}
	if maxParallel <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidParallelism, maxParallel)
	}
	if p.Transport == nil {
		return nil, errors.New("poller has no transport")
	}
	body, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	workers := min(n, maxParallel)
	p.log().Infof("Dispatching %d calls with %d workers", n, workers)

	var bar *mpb.Bar
	if p.Progress != nil {
		bar = p.Progress.AddBar(int64(n),
			mpb.PrependDecorators(
				decor.Name("Fetched "),
				decor.CountersNoUnit("%d/%d"),
				decor.Name(" responses..."),
			),
			mpb.AppendDecorators(
				decor.OnComplete(
					decor.AverageETA(decor.ET_STYLE_GO, decor.WCSyncWidth), "done",
				),
			),
		)
	}

	indices := make(chan int)
	completed := make(chan CallResult, workers)
	wg := sync.WaitGroup{}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range indices {
				completed <- p.call(ctx, body, index)
			}
		}()
	}

	go func() {
		for index := 1; index <= n; index++ {
			indices <- index
		}
		close(indices)
	}()

	go func() {
		wg.Wait()
		close(completed)
	}()

	results := make(ResultSet, n)
	done := 0
	for result := range completed {
		results[result.Index-1] = result
		done++
		if bar != nil {
			bar.Increment()
		}
		p.notify(done, n, result)
	}

	p.log().Infof("Batch finished: %d calls, %d failed", n, results.Failed())
	return results, nil
}

// notify hands result to the Observer. A panicking observer is logged and the batch carries on.
func (p *Poller) notify(completed, total int, result CallResult) {
	if p.Observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log().Errorf("Observer panicked on request %d: %v", result.Index, r)
		}
	}()
	p.Observer(completed, total, result)
}

// call performs one request. It never returns an error: every failure is recorded on the result.
func (p *Poller) call(ctx context.Context, body []byte, index int) (result CallResult) {
	result.Index = index
	start := time.Now()
	p.Metrics.callStarted()
	defer func() {
		if r := recover(); r != nil {
			result.Response = ""
			result.Err = fmt.Errorf("panic during call: %v", r)
		}
		p.Metrics.callFinished(result, time.Since(start))
	}()

	if p.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Settings.Timeout)
		defer cancel()
	}

	p.log().Debugf("Request %d submitted", index)
	status, respBody, err := p.Transport.Send(ctx, body)
	if err != nil {
		p.log().Errorf("Request %d failed: %v", index, err)
		result.Err = err
		return result
	}
	if status != 200 {
		result.Err = newStatusError(status, respBody)
		p.log().Errorf("Request %d failed with status %d: %s", index, status, respBody)
		return result
	}

	answer, err := ParseAnswer(respBody)
	if err != nil {
		p.log().Errorf("Request %d returned invalid JSON: %v", index, err)
		result.Err = err
		return result
	}
	p.log().Infof("Request %d successful. Response: %s...", index, preview(answer, 100))
	result.Response = answer
	return result
}

func (p *Poller) log() Logger {
	if p.Logger == nil {
		return &noOpLogger{}
	}
	return p.Logger
}

func preview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// We've omitted 'Fatal' errors. This library shouldn't cause any panics or os.Exit()s.

// Logger: An interface to support different logging implementations, with a default no-op Logger provided.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
}

// noOpLogger: A no-operation logger implementation that does not log anything. This is the default logger used if no custom logger is provided.
type noOpLogger struct{}

func (n *noOpLogger) Debug(args ...interface{})                 {}
func (n *noOpLogger) Debugf(format string, args ...interface{}) {}
func (n *noOpLogger) Info(args ...interface{})                  {}
func (n *noOpLogger) Infof(format string, args ...interface{})  {}
func (n *noOpLogger) Warn(args ...interface{})                  {}
func (n *noOpLogger) Warnf(format string, args ...interface{})  {}
func (n *noOpLogger) Error(args ...interface{})                 {}
func (n *noOpLogger) Errorf(format string, args ...interface{}) {}
