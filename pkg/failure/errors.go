package failure

type Severity int

// caller control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is the error contract shared by every package in this module.
// Severity tells the caller whether retrying the same operation can succeed;
// it says nothing about what went wrong. Each package attaches its own Cause.
type ClassifiedError interface {
	error
	Severity() Severity
}
