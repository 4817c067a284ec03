package exercise

import "time"

// Phase is a lifecycle state of the runtime.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseReady
	PhaseRunning
	PhasePaused
	PhaseCompleted
	PhaseDestroyed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseReady:
		return "ready"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase name in JSON and CloudEvent payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Terminal reports whether no further transitions except Destroy apply.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseDestroyed
}

// CompletionReason tags why an exercise completed.
type CompletionReason string

const (
	CompletionNone     CompletionReason = ""
	CompletionAnswered CompletionReason = "answered"
	CompletionTimeUp   CompletionReason = "timeUp"
	CompletionManual   CompletionReason = "manual"
)

// State is an immutable snapshot of the runtime state returned by
// Runtime.State. Slices are copies.
type State struct {
	Phase     Phase `json:"phase"`
	Started   bool  `json:"started"`
	Paused    bool  `json:"paused"`
	Completed bool  `json:"completed"`

	SelectedAnswers []string `json:"selectedAnswers"`
	Attempts        int      `json:"attempts"`
	HintsUsed       int      `json:"hintsUsed"`

	TimeElapsed   time.Duration `json:"timeElapsed"`
	TimeRemaining time.Duration `json:"timeRemaining"`

	Score    float64           `json:"score"`
	Accuracy float64           `json:"accuracy"`
	Feedback *ValidationResult `json:"feedback,omitempty"`

	Loading bool          `json:"loading"`
	Error   *RuntimeError `json:"-"`

	CompletionReason CompletionReason `json:"completionReason,omitempty"`
	TimeUp           bool             `json:"timeUp"`
}

// Results aggregates a finished (or in-progress) run.
type Results struct {
	ExerciseID         string           `json:"exerciseId"`
	Score              float64          `json:"score"`
	Accuracy           float64          `json:"accuracy"`
	TotalTime          time.Duration    `json:"totalTime"`
	Attempts           int              `json:"attempts"`
	HintsUsed          int              `json:"hintsUsed"`
	CorrectSubmissions int              `json:"correctSubmissions"`
	Reason             CompletionReason `json:"reason"`
	TimeUp             bool             `json:"timeUp"`
}

// AnswerRecord is one entry of the answer history.
type AnswerRecord struct {
	Attempt     int              `json:"attempt"`
	Answer      Answer           `json:"answer"`
	Result      ValidationResult `json:"result"`
	Score       float64          `json:"score"`
	SubmittedAt time.Time        `json:"submittedAt"`
}

// runState is the mutable state guarded by Runtime.mu.
type runState struct {
	phase     Phase
	started   bool
	completed bool

	selected  []string
	attempts  int
	hintsUsed int
	correct   int

	score    float64
	accuracy float64
	feedback *ValidationResult

	loading bool
	err     *RuntimeError

	reason CompletionReason
	timeUp bool

	startedAt   time.Time
	completedAt time.Time
	history     []AnswerRecord
}

func (s *runState) isSelected(id string) bool {
	for _, sel := range s.selected {
		if sel == id {
			return true
		}
	}
	return false
}

func (s *runState) snapshot(timer *Timer) State {
	st := State{
		Phase:            s.phase,
		Started:          s.started,
		Paused:           s.phase == PhasePaused,
		Completed:        s.completed,
		SelectedAnswers:  append([]string{}, s.selected...),
		Attempts:         s.attempts,
		HintsUsed:        s.hintsUsed,
		Score:            s.score,
		Accuracy:         s.accuracy,
		Loading:          s.loading,
		Error:            s.err,
		CompletionReason: s.reason,
		TimeUp:           s.timeUp,
	}
	if s.feedback != nil {
		fb := *s.feedback
		fb.CorrectSet = append([]string(nil), s.feedback.CorrectSet...)
		st.Feedback = &fb
	}
	if timer != nil {
		st.TimeElapsed = timer.Elapsed()
		st.TimeRemaining = timer.Remaining()
	}
	return st
}
