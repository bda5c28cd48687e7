package errcode

// Code is a stable error identifier for bus and driver results.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	InvalidParams Code = "invalid_params"
	Unsupported   Code = "unsupported"

	// Bus results.
	Nack    Code = "nack"    // slave did not acknowledge an address or data byte
	Timeout Code = "timeout" // bounded wait expired (clock held low)

	UnknownChip Code = "unknown_chip"
	OutOfRange  Code = "out_of_range"

	Error Code = "error" // generic fallback
)

// E is the optional wrapper used when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap returns an *E carrying c, using c itself as the cause so that
// errors.Is(err, c) holds.
func Wrap(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg, Err: c}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
