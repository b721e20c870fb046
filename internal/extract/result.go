package extract

// Result is what extracting one file produces, success or not. Text is
// always printable; Method records how the text was obtained. Err is nil
// when extraction succeeded (including "nothing to extract") and otherwise
// wraps a sentinel callers can branch on.
type Result struct {
	Text   string
	Method string
	Err    error
}

// Failed reports whether the extraction failed.
func (r Result) Failed() bool {
	return r.Err != nil
}
