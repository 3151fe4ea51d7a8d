package orders

// Status is free text. The five constants are the values the dashboard
// offers; the store accepts anything and no transition is ever rejected.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCooking   Status = "Cooking"
	StatusReady     Status = "Ready"
	StatusServed    Status = "Served"
	StatusCompleted Status = "Completed"
)

var known = map[Status]bool{
	StatusPending:   true,
	StatusCooking:   true,
	StatusReady:     true,
	StatusServed:    true,
	StatusCompleted: true,
}

func (s Status) IsKnown() bool { return known[s] }

// Active orders keep their table booked.
func (s Status) Active() bool { return s != StatusCompleted }
