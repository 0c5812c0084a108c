package system

import (
	"os/exec"
	"runtime"
	"strings"
	"unicode"
)

// Candidates is an ordered list of interpreter names. Earlier entries are
// preferred; platform launchers come last.
type Candidates []string

// DefaultCandidates returns the interpreter names tried when nothing is
// configured: python, then python3, then the py launcher on Windows.
func DefaultCandidates() Candidates {
	c := Candidates{"python", "python3"}
	if runtime.GOOS == "windows" {
		c = append(c, "py")
	}
	return c
}

// ParseCandidates parses a comma or whitespace separated list of names.
// An empty list yields DefaultCandidates.
func ParseCandidates(s string) Candidates {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return DefaultCandidates()
	}
	return Candidates(fields)
}

// Clone returns a copy that callers may not observe being modified.
func (c Candidates) Clone() Candidates {
	out := make(Candidates, len(c))
	copy(out, c)
	return out
}

func (c Candidates) String() string {
	return strings.Join(c, ",")
}

// CandidateStatus reports where, if anywhere, a candidate resolves on PATH.
type CandidateStatus struct {
	Name  string
	Path  string
	Found bool
}

// Available resolves every candidate against PATH. It is diagnostic only;
// invocations resolve executables at launch time.
func Available(c Candidates) []CandidateStatus {
	statuses := make([]CandidateStatus, 0, len(c))
	for _, name := range c {
		path, err := exec.LookPath(name)
		statuses = append(statuses, CandidateStatus{
			Name:  name,
			Path:  path,
			Found: err == nil,
		})
	}
	return statuses
}
