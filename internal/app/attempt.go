package app

import (
	"sync"
	"time"

	"quizarena/internal/domain"
	"quizarena/internal/scoring"
)

// AttemptState is the lifecycle position of a live attempt. The Loading and
// Blocked phases of the session lifecycle never materialize an Attempt; they
// resolve inside AttemptService.Start before one is created.
type AttemptState string

const (
	// StateActive accepts navigation, answers, and submission.
	StateActive AttemptState = "active"
	// StateSubmitting means a submit is in flight; further actions are rejected.
	StateSubmitting AttemptState = "submitting"
	// StateComplete is terminal: the attempt became a Submission.
	StateComplete AttemptState = "complete"
)

// EventKind tags what an attempt event carries.
type EventKind string

const (
	// EventState signals navigation or answer changes.
	EventState EventKind = "state"
	// EventTick signals a countdown decrement.
	EventTick EventKind = "tick"
	// EventCompleted signals the terminal transition, with the graded result.
	EventCompleted EventKind = "completed"
)

// Event is pushed to attempt watchers on every observable change.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Result   *scoring.Result // set on EventCompleted when grading happened here
	Forced   bool            // true when completion came from the countdown
}

// Snapshot is an immutable view of attempt progress.
type Snapshot struct {
	QuizID          string       `json:"quiz_id"`
	UserID          string       `json:"user_id"`
	State           AttemptState `json:"state"`
	CurrentQuestion int          `json:"current_question"`
	Answers         []int        `json:"answers"`
	AnsweredCount   int          `json:"answered_count"`
	TimeRemaining   *int         `json:"time_remaining,omitempty"` // seconds
	StartedAt       time.Time    `json:"started_at"`
}

// Attempt is one participant's in-flight pass over a quiz. All mutation goes
// through the mutex; the countdown goroutine and user actions funnel into the
// same guarded submit transition so exactly one of them wins.
type Attempt struct {
	quiz   domain.Quiz
	userID string
	now    func() time.Time

	mu        sync.Mutex
	state     AttemptState
	answers   []int
	current   int
	remaining int // seconds, meaningful only when timed
	timed     bool
	startedAt time.Time
	done      chan struct{}
	watchers  map[chan Event]struct{}
}

func newAttempt(quiz domain.Quiz, userID string, now func() time.Time) *Attempt {
	return &Attempt{
		quiz:      quiz,
		userID:    userID,
		now:       now,
		state:     StateActive,
		answers:   scoring.NewAnswerSheet(len(quiz.Questions)),
		remaining: quiz.TimeLimit * 60,
		timed:     quiz.TimeLimit > 0,
		startedAt: now(),
		done:      make(chan struct{}),
		watchers:  make(map[chan Event]struct{}),
	}
}

// Quiz returns the definition this attempt runs against.
func (a *Attempt) Quiz() domain.Quiz { return a.quiz }

// UserID returns the participant holding this attempt.
func (a *Attempt) UserID() string { return a.userID }

// Done is closed once when the attempt ends, stopping the countdown owner.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// Snapshot returns a copy of the current progress.
func (a *Attempt) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Attempt) snapshotLocked() Snapshot {
	answers := make([]int, len(a.answers))
	copy(answers, a.answers)
	answered := 0
	for _, ans := range answers {
		if ans != scoring.Unanswered {
			answered++
		}
	}
	snap := Snapshot{
		QuizID:          a.quiz.ID,
		UserID:          a.userID,
		State:           a.state,
		CurrentQuestion: a.current,
		Answers:         answers,
		AnsweredCount:   answered,
		StartedAt:       a.startedAt,
	}
	if a.timed {
		remaining := a.remaining
		snap.TimeRemaining = &remaining
	}
	return snap
}

// Subscribe registers a watcher and delivers an initial state event.
// The caller must invoke the returned cancel function to avoid leaks.
func (a *Attempt) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	a.mu.Lock()
	a.watchers[ch] = struct{}{}
	initial := Event{Kind: EventState, Snapshot: a.snapshotLocked()}
	a.mu.Unlock()

	ch <- initial

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.watchers[ch]; ok {
			delete(a.watchers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) watcherCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.watchers)
}

// broadcastLocked fans an event out without letting a slow watcher block:
// a full channel has its oldest event dropped in favor of the fresh one.
func (a *Attempt) broadcastLocked(ev Event) {
	for ch := range a.watchers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

// Answer selects an option for the current question, overwriting any earlier
// choice. It does not advance the cursor.
func (a *Attempt) Answer(option int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateActive {
		return domain.ErrAttemptFinished
	}
	if option < 0 || option >= len(a.quiz.Questions[a.current].Options) {
		return domain.ErrOptionOutOfRange
	}
	a.answers[a.current] = option
	a.broadcastLocked(Event{Kind: EventState, Snapshot: a.snapshotLocked()})
	return nil
}

// NavigateTo jumps to any valid question index.
func (a *Attempt) NavigateTo(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateActive {
		return domain.ErrAttemptFinished
	}
	if index < 0 || index >= len(a.quiz.Questions) {
		return domain.ErrQuestionIndexOutOfRange
	}
	a.current = index
	a.broadcastLocked(Event{Kind: EventState, Snapshot: a.snapshotLocked()})
	return nil
}

// Next advances one question, but only once the current slot is answered.
func (a *Attempt) Next() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateActive {
		return domain.ErrAttemptFinished
	}
	if a.current+1 >= len(a.quiz.Questions) {
		return domain.ErrQuestionIndexOutOfRange
	}
	if a.answers[a.current] == scoring.Unanswered {
		return domain.ErrCurrentUnanswered
	}
	a.current++
	a.broadcastLocked(Event{Kind: EventState, Snapshot: a.snapshotLocked()})
	return nil
}

// Previous moves one question back. Unlike Next it has no answered gate.
func (a *Attempt) Previous() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateActive {
		return domain.ErrAttemptFinished
	}
	if a.current == 0 {
		return domain.ErrQuestionIndexOutOfRange
	}
	a.current--
	a.broadcastLocked(Event{Kind: EventState, Snapshot: a.snapshotLocked()})
	return nil
}

// tick decrements the countdown by one second and reports whether it just
// reached zero. Only an Active timed attempt ticks, so after a submit begins
// the countdown owner sees false and stops interfering.
func (a *Attempt) tick() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.timed || a.state != StateActive || a.remaining <= 0 {
		return false
	}
	a.remaining--
	a.broadcastLocked(Event{Kind: EventTick, Snapshot: a.snapshotLocked()})
	return a.remaining == 0
}

// beginSubmit transitions Active -> Submitting and returns a copy of the
// answer sheet to grade. The manual path requires a fully answered sheet;
// the forced (timeout) path does not. A second caller in any submit phase
// gets ErrAttemptFinished, which keeps the tick/manual race one-winner.
func (a *Attempt) beginSubmit(forced bool) ([]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateActive {
		return nil, domain.ErrAttemptFinished
	}
	if !forced {
		for _, ans := range a.answers {
			if ans == scoring.Unanswered {
				return nil, domain.ErrAttemptIncomplete
			}
		}
	}
	a.state = StateSubmitting
	answers := make([]int, len(a.answers))
	copy(answers, a.answers)
	return answers, nil
}

// finish completes the attempt and wakes watchers. Safe to call once after
// beginSubmit; the done channel stops the countdown owner.
func (a *Attempt) finish(result *scoring.Result, forced bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateComplete {
		return
	}
	a.state = StateComplete
	close(a.done)
	a.broadcastLocked(Event{Kind: EventCompleted, Snapshot: a.snapshotLocked(), Result: result, Forced: forced})
}

// reopen rolls Submitting back to Active after a retryable persistence
// failure, keeping the in-progress answers intact.
func (a *Attempt) reopen() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateSubmitting {
		return
	}
	a.state = StateActive
	a.broadcastLocked(Event{Kind: EventState, Snapshot: a.snapshotLocked()})
}

// abandon tears the attempt down without a trace. Reports whether this call
// ended it (false if a submit already did).
func (a *Attempt) abandon() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateActive {
		return false
	}
	a.state = StateComplete
	close(a.done)
	return true
}

// elapsedSeconds is wall-clock time since the attempt started, independent
// of the countdown.
func (a *Attempt) elapsedSeconds() int {
	return int(a.now().Sub(a.startedAt) / time.Second)
}
