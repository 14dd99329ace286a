package trigger

// Outcome classifies what happened to one record of a batch.
type Outcome int

const (
	Skipped Outcome = iota
	Triggered
	ProtocolFailure
	TransportFailure
	UnexpectedFailure
)

var outcomeNames = map[Outcome]string{
	Skipped:           "skipped",
	Triggered:         "triggered",
	ProtocolFailure:   "protocol_error",
	TransportFailure:  "transport_error",
	UnexpectedFailure: "unexpected_error",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Failed reports whether the record matched but its build was not triggered.
func (o Outcome) Failed() bool {
	return o == ProtocolFailure || o == TransportFailure || o == UnexpectedFailure
}

// Summary counts outcomes across a batch.
type Summary map[Outcome]int

func (s Summary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// Counts returns the summary keyed by outcome name, with every outcome present.
func (s Summary) Counts() map[string]int {
	counts := make(map[string]int, len(outcomeNames))
	for outcome, name := range outcomeNames {
		counts[name] = s[outcome]
	}
	return counts
}
