package dish

// Limits on a timing step.
const (
	MinSeconds = 10
	MaxSeconds = 18000
	MinPower   = 10
	MaxPower   = 100

	maxNameLength = 50
)

// AtomicTiming is one step of a timing: run the stove at Power percent for
// Seconds seconds.
type AtomicTiming struct {
	Seconds int `json:"seconds"`
	Power   int `json:"power"`
}

// Timing is a named phase of a dish.
type Timing struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	AtomicTimings []AtomicTiming `json:"atomic_timings"`
}

type Dish struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Timings     []Timing `json:"timings"`
}

// TimingInput describes a timing to create along with its steps.
type TimingInput struct {
	Name          string         `json:"name"`
	AtomicTimings []AtomicTiming `json:"atomic_timings"`
}

// CreateDishInput describes a whole dish aggregate.
type CreateDishInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Timings     []TimingInput `json:"timings"`
}
