package site

import (
	"fmt"
	"io"
	"strings"
)

// Status is the outcome of one source file.
type Status int

const (
	Written Status = iota
	Copied
	Skipped
	Problem
)

func (s Status) String() string {
	switch s {
	case Written:
		return "written"
	case Copied:
		return "copied"
	case Skipped:
		return "skipped"
	case Problem:
		return "problem"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Entry reports what happened to one source file.
type Entry struct {
	// Path is the source path relative to the source folder, slash separated.
	Path string
	// Output is the produced file relative to the output folder, if any.
	Output string
	Status Status
	Detail string
}

func (e Entry) String() string {
	status := e.Status.String()
	if e.Detail != "" {
		status += ": " + e.Detail
	}
	if e.Output != "" && e.Output != e.Path {
		return fmt.Sprintf("%s %s -> %s", status, e.Path, e.Output)
	}
	return fmt.Sprintf("%s %s", status, e.Path)
}

// Report is the result of one build. Entries are in enumeration order.
type Report struct {
	Source  string
	Output  string
	Entries []Entry
}

// Problems returns the entries with the Problem status.
func (r *Report) Problems() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Status == Problem {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of entries with the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// WriteTo writes one line per entry followed by a summary line.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "src %s\n", r.Source)
	fmt.Fprintf(&b, "dist %s\n", r.Output)
	for _, e := range r.Entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d written, %d copied, %d skipped, %d problems\n",
		r.Count(Written), r.Count(Copied), r.Count(Skipped), r.Count(Problem))

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
