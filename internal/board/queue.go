package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
)

// DefaultTimeout bounds one persist request
const DefaultTimeout = 10 * time.Second

// Status is how a dispatched command ended
type Status int

const (
	// Confirmed: persisted, local state was already correct
	Confirmed Status = iota
	// RolledBack: the lane was reverted to its last confirmed state
	RolledBack
	// Refetched: the board was reloaded from the server
	Refetched
	// Superseded: a newer command for the same entity replaced this one
	Superseded
	// Skipped: the command did not change local state and was never sent
	Skipped
)

func (s Status) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	case Refetched:
		return "refetched"
	case Superseded:
		return "superseded"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is delivered once per dispatched command
type Outcome struct {
	Status Status
	Err    error
}

// QueueConfig configures a Queue
type QueueConfig struct {
	Persister Persister
	// Refetcher is optional; without it conflicts roll back instead
	Refetcher Refetcher
	Timeout   time.Duration
	Logger    *zap.Logger
	// OnChange runs after the state changed for a reason other than a local Dispatch
	OnChange func()
}

type pending struct {
	seq        uint64
	key        uuid.UUID
	cmd        Command
	done       chan Outcome
	superseded bool
}

func (p *pending) resolve(o Outcome) {
	select {
	case p.done <- o:
	default:
	}
}

// lane serializes the commands of one entity.
// ledger holds every locally applied command not yet confirmed, oldest first.
type lane struct {
	inflight *pending
	queued   []*pending
	ledger   []*pending
}

func (l *lane) idle() bool {
	return l.inflight == nil && len(l.queued) == 0 && len(l.ledger) == 0
}

// creating reports whether a create of column is still unconfirmed in this lane
func (l *lane) creating(column uuid.UUID) bool {
	for _, p := range l.ledger {
		if c, ok := p.cmd.(*CreateColumnCommand); ok && c.Column.ID == column {
			return true
		}
	}
	return false
}

// forget drops the ledger entries of one entity
func (l *lane) forget(key uuid.UUID) {
	kept := l.ledger[:0]
	for _, p := range l.ledger {
		if p.cmd.Key() != key {
			kept = append(kept, p)
		}
	}
	l.ledger = kept
}

// confirm drops ledger entries up to and including seq
func (l *lane) confirm(seq uint64) {
	i := 0
	for i < len(l.ledger) && l.ledger[i].seq <= seq {
		i++
	}
	l.ledger = l.ledger[i:]
}

// Queue applies commands to State and persists them with at most one request in flight per entity
type Queue struct {
	mu       sync.Mutex
	state    *State
	lanes    map[uuid.UUID]*lane
	aliases  map[uuid.UUID]uuid.UUID // entity -> lane it waits in
	seq      uint64
	cfg      QueueConfig
	logger   *zap.Logger
	wg       sync.WaitGroup
	baseCtx  context.Context
	cancelFn context.CancelFunc
}

// NewQueue creates a Queue that owns state
func NewQueue(state *State, cfg QueueConfig) *Queue {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		state:    state,
		lanes:    make(map[uuid.UUID]*lane),
		aliases:  make(map[uuid.UUID]uuid.UUID),
		cfg:      cfg,
		logger:   logger,
		baseCtx:  ctx,
		cancelFn: cancel,
	}
}

// Dispatch applies cmd locally and schedules its persist.
// The returned channel receives exactly one Outcome.
func (q *Queue) Dispatch(cmd Command) <-chan Outcome {
	done, _ := q.dispatch(cmd)
	return done
}

func (q *Queue) dispatch(cmd Command) (<-chan Outcome, bool) {
	p := &pending{cmd: cmd, done: make(chan Outcome, 1)}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := cmd.Do(q.state); err != nil {
		p.resolve(Outcome{Status: Skipped, Err: err})
		return p.done, false
	}

	q.seq++
	p.seq = q.seq
	p.key = q.laneKey(cmd)
	ln := q.lane(p.key)
	ln.ledger = append(ln.ledger, p)

	if ln.inflight == nil {
		q.start(ln, p)
		return p.done, true
	}

	if c, ok := cmd.(coalescer); ok {
		if n := len(ln.queued); n > 0 && c.absorb(ln.queued[n-1].cmd) {
			ln.queued[n-1].resolve(Outcome{Status: Superseded})
			ln.queued = ln.queued[:n-1]
		}
		if c.absorb(ln.inflight.cmd) {
			ln.inflight.superseded = true
		}
	}
	ln.queued = append(ln.queued, p)
	return p.done, true
}

// WithState runs fn with exclusive access to the mirrored state
func (q *Queue) WithState(fn func(s *State)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fn(q.state)
}

// Rebase merges a remote change to one entity. Pending local commands for it can no longer
// be undone, so a later failure rolls back to the state fn produced.
func (q *Queue) Rebase(key uuid.UUID, fn func(s *State) bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	changed := fn(q.state)
	laneKey := key
	if via, ok := q.aliases[key]; ok {
		laneKey = via
	}
	if ln, ok := q.lanes[laneKey]; ok && changed {
		ln.forget(key)
		q.gc(laneKey, ln)
	}
	return changed
}

// Pending reports how many entities have unconfirmed commands
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}

// Wait blocks until every in-flight persist finished or ctx is done
func (q *Queue) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels in-flight requests. Their commands roll back.
func (q *Queue) Close() {
	q.cancelFn()
}

func (q *Queue) lane(key uuid.UUID) *lane {
	ln, ok := q.lanes[key]
	if !ok {
		ln = &lane{}
		q.lanes[key] = ln
	}
	return ln
}

// laneKey picks the lane for cmd. A task command targeting a column whose create is
// still unconfirmed waits behind it, and later commands for that task follow it there.
func (q *Queue) laneKey(cmd Command) uuid.UUID {
	key := cmd.Key()
	if via, ok := q.aliases[key]; ok {
		return via
	}
	if _, busy := q.lanes[key]; busy {
		return key
	}
	d, ok := cmd.(columnDependent)
	if !ok {
		return key
	}
	column := d.targetColumn()
	if ln, ok := q.lanes[column]; ok && ln.creating(column) {
		q.aliases[key] = column
		return column
	}
	return key
}

func (q *Queue) gc(key uuid.UUID, ln *lane) {
	if !ln.idle() {
		return
	}
	delete(q.lanes, key)
	for entity, via := range q.aliases {
		if via == key {
			delete(q.aliases, entity)
		}
	}
}

// start must be called with mu held
func (q *Queue) start(ln *lane, p *pending) {
	ln.inflight = p
	q.wg.Add(1)
	go q.persist(p)
}

func (q *Queue) persist(p *pending) {
	defer q.wg.Done()

	ctx, cancel := context.WithTimeout(q.baseCtx, q.cfg.Timeout)
	err := p.cmd.Persist(ctx, q.cfg.Persister)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		err = &PersistError{Kind: ErrTimeout, Message: err.Error()}
	}
	cancel()

	q.complete(p, err)
}

func (q *Queue) complete(p *pending, err error) {
	key := p.key

	q.mu.Lock()
	ln := q.lane(key)

	var outcome Outcome
	switch {
	case err == nil:
		ln.confirm(p.seq)
		outcome = Outcome{Status: Confirmed}
		if p.superseded {
			outcome.Status = Superseded
		}
	case p.superseded:
		outcome = Outcome{Status: Superseded, Err: err}
	case NeedsRefetch(err) && q.cfg.Refetcher != nil:
		// lane stays blocked on p until the reload lands
		q.mu.Unlock()
		outcome = q.refetch(key, err)
		q.notify()
		p.resolve(outcome)
		return
	default:
		q.rollback(ln)
		outcome = Outcome{Status: RolledBack, Err: err}
	}

	ln.inflight = nil
	q.next(key, ln)
	q.mu.Unlock()

	if err != nil {
		q.logger.Warn("Persist failed",
			zap.String("entity_id", p.cmd.Key().String()),
			zap.String("status", outcome.Status.String()),
			zap.Error(err))
	}
	if outcome.Status == RolledBack {
		q.notify()
	}
	p.resolve(outcome)
}

func (q *Queue) refetch(key uuid.UUID, cause error) Outcome {
	ctx, cancel := context.WithTimeout(q.baseCtx, q.cfg.Timeout)
	defer cancel()

	q.mu.Lock()
	boardID := q.state.BoardID()
	q.mu.Unlock()

	board, err := q.cfg.Refetcher.FetchBoard(ctx, boardID)

	q.mu.Lock()
	defer q.mu.Unlock()
	ln := q.lane(key)
	ln.inflight = nil

	if err != nil {
		q.logger.Error("Board refetch failed, rolling back",
			zap.String("board_id", boardID.String()),
			zap.NamedError("cause", cause),
			zap.Error(err))
		q.rollback(ln)
		q.next(key, ln)
		return Outcome{Status: RolledBack, Err: cause}
	}

	q.logger.Info("Board refetched after persist failure",
		zap.String("board_id", boardID.String()),
		zap.Error(cause))
	q.replace(board)
	return Outcome{Status: Refetched, Err: cause}
}

// replace installs a canonical board. Every ledger is void and nothing queued is sent.
func (q *Queue) replace(board *dto.BoardResponse) {
	q.state.Replace(board)
	for key, ln := range q.lanes {
		for _, qp := range ln.queued {
			qp.resolve(Outcome{Status: Refetched, Err: ErrAborted})
		}
		ln.queued = nil
		ln.ledger = nil
		q.gc(key, ln)
	}
}

// rollback undoes every unconfirmed command of the lane, newest first, and drops its queue
func (q *Queue) rollback(ln *lane) {
	for i := len(ln.ledger) - 1; i >= 0; i-- {
		ln.ledger[i].cmd.Undo(q.state)
	}
	ln.ledger = nil
	for _, qp := range ln.queued {
		qp.resolve(Outcome{Status: RolledBack, Err: ErrAborted})
	}
	ln.queued = nil
}

func (q *Queue) next(key uuid.UUID, ln *lane) {
	if len(ln.queued) > 0 {
		p := ln.queued[0]
		ln.queued = ln.queued[1:]
		q.start(ln, p)
		return
	}
	q.gc(key, ln)
}

func (q *Queue) notify() {
	if q.cfg.OnChange != nil {
		q.cfg.OnChange()
	}
}
