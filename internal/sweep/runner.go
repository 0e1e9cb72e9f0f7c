package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/nhle/mailsweep/internal/model"
	"github.com/nhle/mailsweep/internal/store"
)

// RuleState represents the current state of one prune rule.
type RuleState int

const (
	RuleIdle RuleState = iota
	RuleRunning
	RuleError
)

// RuleStatus holds the runner's view of a single rule.
type RuleStatus struct {
	Folder  string
	State   RuleState
	LastRun time.Time
	Error   error
}

// RunResult is emitted after every rule execution.
type RunResult struct {
	Rule   model.PruneRule
	Result model.MutationResult
	Err    error
}

// PruneFunc executes one prune against a fresh mailbox session. The
// runner never holds a session between runs; each invocation connects,
// prunes, and disconnects.
type PruneFunc func(crit model.PruneCriteria) (model.MutationResult, error)

// recordTimeout bounds each audit-log write.
const recordTimeout = 10 * time.Second

// defaultInterval is used when a rule does not set one.
const defaultInterval = 24 * time.Hour

// Runner executes prune rules on their configured intervals and records
// every run in the audit log. Rules run independently; one rule failing
// never stops the others.
type Runner struct {
	store    store.Store
	prune    PruneFunc
	rules    []model.PruneRule
	statuses map[string]*RuleStatus
	resultCh chan RunResult
	stopCh   chan struct{}
	mu       sync.Mutex
	running  bool

	now func() time.Time
}

// New creates a Runner recording into the given store.
func New(s store.Store, prune PruneFunc) *Runner {
	return &Runner{
		store:    s,
		prune:    prune,
		statuses: make(map[string]*RuleStatus),
		resultCh: make(chan RunResult, 16),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// AddRule registers a prune rule with the runner.
func (r *Runner) AddRule(rule model.PruneRule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule)
	r.statuses[rule.Folder] = &RuleStatus{
		Folder: rule.Folder,
		State:  RuleIdle,
	}
}

// Start launches one goroutine per registered rule. Each rule runs once
// immediately and then on its interval until Stop is called.
func (r *Runner) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	rules := make([]model.PruneRule, len(r.rules))
	copy(rules, r.rules)
	r.mu.Unlock()

	for _, rule := range rules {
		go r.runRule(rule)
	}
}

// Stop halts every rule goroutine.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	close(r.stopCh)
	r.running = false
}

// Results exposes the stream of completed runs. Results are dropped when
// nobody is reading; the audit log is the durable record.
func (r *Runner) Results() <-chan RunResult {
	return r.resultCh
}

// Statuses returns the current status of every registered rule.
func (r *Runner) Statuses() []RuleStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make([]RuleStatus, 0, len(r.statuses))
	for _, s := range r.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// runRule is the ticker loop for one rule.
func (r *Runner) runRule(rule model.PruneRule) {
	interval := time.Duration(rule.IntervalSec) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.RunOnce(rule)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.RunOnce(rule)
		}
	}
}

// RunOnce executes a single rule immediately, records the outcome in the
// audit log, and reports the result.
func (r *Runner) RunOnce(rule model.PruneRule) RunResult {
	r.setStatus(rule.Folder, RuleRunning, nil)

	started := r.now()

	crit := model.PruneCriteria{
		Folder:      rule.Folder,
		Before:      started.AddDate(0, 0, -rule.MaxAgeDays),
		Destination: model.Destination(rule.Destination),
	}

	result, err := r.prune(crit)
	finished := r.now()

	run := model.CleanupRun{
		Operation:  model.OperationPrune,
		Folder:     rule.Folder,
		Succeeded:  len(result.Succeeded),
		Failed:     len(result.Failed),
		StartedAt:  started,
		FinishedAt: finished,
	}
	if err != nil {
		run.Error = err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if recErr := r.store.RecordRun(ctx, run); recErr != nil && err == nil {
		err = recErr
	}

	if err != nil {
		r.setStatus(rule.Folder, RuleError, err)
	} else {
		r.setStatus(rule.Folder, RuleIdle, nil)
	}

	res := RunResult{Rule: rule, Result: result, Err: err}
	r.sendResult(res)
	return res
}

// setStatus updates the status for one rule's folder.
func (r *Runner) setStatus(folder string, state RuleState, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.statuses[folder]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == RuleIdle && err == nil {
		status.LastRun = r.now()
	}
}

// sendResult sends without blocking; the loop must never stall on a slow
// consumer.
func (r *Runner) sendResult(res RunResult) {
	select {
	case r.resultCh <- res:
	default:
	}
}
