package exchange

// Status of an exchange. Only these five values are ever persisted.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses is the canonical enumeration order. AllowedTargets and the UI
// rely on this ordering.
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// transitions maps each state to the set it may move to. Terminal states map
// to nothing.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// ValidStatus reports whether s is a member of the status enum.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active is any status other than the two terminal ones.
func (s Status) Active() bool {
	return ValidStatus(s) && !s.Terminal()
}

// Forward reports whether s is a provider-driven forward state.
func (s Status) Forward() bool {
	return s == StatusConfirmed || s == StatusInProgress || s == StatusCompleted
}

// CanTransition reports whether the table allows from -> to. Re-entering the
// same state is never allowed.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the status choices to offer a viewing participant:
// always the current state, cancelled while the exchange is active, and the
// forward set only when the viewer is the provider. The result is filtered
// to, and ordered by, AllStatuses.
func AllowedTargets(current Status, isProvider bool) []Status {
	allowed := map[Status]bool{current: true}
	if current.Active() {
		allowed[StatusCancelled] = true
		if isProvider {
			for _, t := range transitions[current] {
				allowed[t] = true
			}
		}
	}

	var out []Status
	for _, s := range AllStatuses {
		if allowed[s] {
			out = append(out, s)
		}
	}
	return out
}
