package git

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineRange is an inclusive, 1-based range of head lines.
type LineRange struct {
	Start int
	End   int
}

// Overlaps reports whether r intersects [start, end].
func (r LineRange) Overlaps(start, end int) bool {
	return r.Start <= end && start <= r.End
}

var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ParseHunks extracts head line ranges from unified diff output.
// A pure deletion touches the head line it follows.
func ParseHunks(output string) ([]LineRange, error) {
	var ranges []LineRange
	for _, line := range strings.Split(output, "\n") {
		m := hunkHeader.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		start, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid hunk header %q: %w", line, err)
		}
		count := 1
		if m[2] != "" {
			if count, err = strconv.Atoi(m[2]); err != nil {
				return nil, fmt.Errorf("invalid hunk header %q: %w", line, err)
			}
		}

		if count == 0 {
			ranges = append(ranges, deletionAt(start))
			continue
		}
		ranges = append(ranges, LineRange{Start: start, End: start + count - 1})
	}
	return ranges, nil
}

// BufferLines computes head line ranges changed between two in-memory
// revisions using a line-mode diff.
func BufferLines(base, head []byte) []LineRange {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(base), string(head))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	tracker := &lineTracker{next: 1}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			tracker.equal(d.Text)
		case diffmatchpatch.DiffInsert:
			tracker.insert(d.Text)
		case diffmatchpatch.DiffDelete:
			tracker.delete()
		}
	}
	return tracker.done()
}

// lineTracker walks diff operations in head order and records touched
// lines. A deletion directly replaced by an insertion counts only as the
// insertion.
type lineTracker struct {
	next          int
	pendingDelete bool
	ranges        []LineRange
}

func (t *lineTracker) equal(text string) {
	t.flush()
	t.next += countLines(text)
}

func (t *lineTracker) insert(text string) {
	t.pendingDelete = false
	n := countLines(text)
	if n == 0 {
		return
	}
	t.ranges = append(t.ranges, LineRange{Start: t.next, End: t.next + n - 1})
	t.next += n
}

func (t *lineTracker) delete() {
	t.pendingDelete = true
}

func (t *lineTracker) done() []LineRange {
	t.flush()
	return t.ranges
}

func (t *lineTracker) flush() {
	if t.pendingDelete {
		t.ranges = append(t.ranges, deletionAt(t.next-1))
		t.pendingDelete = false
	}
}

func deletionAt(line int) LineRange {
	if line < 1 {
		line = 1
	}
	return LineRange{Start: line, End: line}
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
