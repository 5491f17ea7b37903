package reservation

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
	StatusCancelled: {},
	StatusCompleted: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Precedes lists the statuses a record may hold when it moves to to,
// including to itself.
func Precedes(to Status) []Status {
	out := []Status{to}
	for _, from := range []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// Active reservations block their cell.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

var activeStatuses = []string{string(StatusPending), string(StatusConfirmed)}
