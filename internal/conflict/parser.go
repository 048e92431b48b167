package conflict

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/matsen/works/internal/storage"
	"github.com/matsen/works/internal/work"
)

type marker int

const (
	noMarker marker = iota
	oursMarker
	separatorMarker
	theirsMarker
)

// classify recognizes git conflict markers. Marker lines may carry a label
// after the seven marker characters ("<<<<<<< HEAD").
func classify(line string) marker {
	switch {
	case strings.HasPrefix(line, "<<<<<<<"):
		return oursMarker
	case strings.HasPrefix(line, "======="):
		return separatorMarker
	case strings.HasPrefix(line, ">>>>>>>"):
		return theirsMarker
	}
	return noMarker
}

// side collects the works of one half of a conflict region and rejects a
// work appearing twice on it.
type side struct {
	works []work.Work
	lines map[WorkRef]int
}

func (s *side) add(w work.Work, line int) error {
	if s.lines == nil {
		s.lines = make(map[WorkRef]int)
	}
	ref := refOf(w)
	if first, ok := s.lines[ref]; ok {
		return ParseError{
			Line:    line,
			Message: fmt.Sprintf("work %s/%d already appears on line %d of the same side", ref.OwnerID, ref.WorkID, first),
		}
	}
	s.lines[ref] = line
	s.works = append(s.works, w)
	return nil
}

// Parse decodes a works.jsonl that may contain git conflict markers. Every
// record, inside or outside a region, must name an owner and a positive
// work id.
func Parse(r io.Reader) (*ParseResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), storage.MaxJSONLLineCapacity)

	result := &ParseResult{}
	named := make(map[WorkRef]bool)

	var (
		region       *ConflictRegion
		ours, theirs side
		inTheirs     bool
		lineNum      int
	)

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		m := classify(line)

		if region == nil {
			switch m {
			case oursMarker:
				region = &ConflictRegion{StartLine: lineNum}
				ours, theirs, inTheirs = side{}, side{}, false
			case separatorMarker, theirsMarker:
				return nil, markerError(lineNum, line, "outside a conflict region")
			default:
				w, ok, err := decodeWork(line, lineNum)
				if err != nil {
					return nil, err
				}
				if ok {
					result.Clean = append(result.Clean, Record{Line: lineNum, Work: w})
				}
			}
			continue
		}

		switch m {
		case oursMarker:
			return nil, markerError(lineNum, line, fmt.Sprintf("nested inside the region opened on line %d", region.StartLine))
		case separatorMarker:
			if inTheirs {
				return nil, markerError(lineNum, line, "repeated in one region")
			}
			inTheirs = true
		case theirsMarker:
			if !inTheirs {
				return nil, markerError(lineNum, line, "before the separator")
			}
			region.EndLine = lineNum
			region.Ours, region.Theirs = ours.works, theirs.works
			for _, w := range append(append([]work.Work{}, ours.works...), theirs.works...) {
				if ref := refOf(w); !named[ref] {
					named[ref] = true
					result.Conflicted = append(result.Conflicted, ref)
				}
			}
			result.Conflicts = append(result.Conflicts, *region)
			region = nil
		default:
			w, ok, err := decodeWork(line, lineNum)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			target := &ours
			if inTheirs {
				target = &theirs
			}
			if err := target.add(w, lineNum); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading works: %w", err)
	}

	if region != nil {
		return nil, ParseError{
			Line:    lineNum,
			Message: fmt.Sprintf("conflict region opened on line %d is never closed", region.StartLine),
		}
	}
	return result, nil
}

// decodeWork decodes one JSONL record. Blank lines report ok=false.
func decodeWork(line string, lineNum int) (work.Work, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return work.Work{}, false, nil
	}

	var w work.Work
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return work.Work{}, false, ParseError{Line: lineNum, Message: "invalid JSON: " + err.Error(), Context: excerpt(line)}
	}
	switch {
	case w.OwnerID == "":
		return work.Work{}, false, ParseError{Line: lineNum, Message: "work has no owner_id", Context: excerpt(line)}
	case w.WorkID <= 0:
		return work.Work{}, false, ParseError{Line: lineNum, Message: fmt.Sprintf("work of %s has no valid work_id", w.OwnerID), Context: excerpt(line)}
	}
	return w, true, nil
}

func markerError(lineNum int, line, where string) ParseError {
	return ParseError{Line: lineNum, Message: fmt.Sprintf("conflict marker %q %s", line[:7], where), Context: line}
}

// excerpt shortens a record for error context.
func excerpt(line string) string {
	const limit = 60
	r := []rune(line)
	if len(r) <= limit {
		return line
	}
	return string(r[:limit-3]) + "..."
}

// ParseString parses from a string.
func ParseString(content string) (*ParseResult, error) {
	return Parse(strings.NewReader(content))
}

// HasConflicts reports whether any conflict region was found.
func (r *ParseResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}
