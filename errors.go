package kvtab

import (
	"errors"
	"fmt"
)

// ErrUnknownTable is returned when an operation names a table that was
// never added to the schema.
var ErrUnknownTable = errors.New("unknown table")

// ValidationError reports a record that cannot be written: a missing
// attribute, an undeclared attribute, or a value failing its declared
// pattern. It is always returned before any key is written.
type ValidationError struct {
	Table string
	Attr  string
	Msg   string
}

func validationErrf(table, attr string, format string, args ...any) error {
	return &ValidationError{table, attr, fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Attr == "" {
		return fmt.Sprintf("%s: %s", e.Table, e.Msg)
	}
	return fmt.Sprintf("%s.%s: %s", e.Table, e.Attr, e.Msg)
}

// DataError reports a stored value that cannot be decoded. Decoding
// never returns partial data; a malformed blob always fails loudly.
type DataError struct {
	Data []byte
	Err  error
	Msg  string
}

func dataErrf(data []byte, err error, format string, args ...any) error {
	return &DataError{data, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}
