package app

// Operation is one CLI command run. Its ID tags every log line the run
// writes, so the lines of one invocation can be grepped together.
type Operation struct {
	ID     string
	Name   string
	Params string
	Status string // "success" or "error"
}

// NewOperation creates an operation that has not failed yet.
func NewOperation(id, name, params string) *Operation {
	return &Operation{
		ID:     id,
		Name:   name,
		Params: params,
		Status: "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Failed returns true if Fail was called.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}
