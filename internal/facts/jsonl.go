package facts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Record is one line of a JSONL fact stream. Exactly one of Module or Edge
// must be set.
type Record struct {
	Module *ModuleFact `json:"module,omitempty"`
	Edge   *EdgeFact   `json:"edge,omitempty"`
}

// ReadJSONL reads a fact stream where each line holds a single module or edge
// record. Blank lines are skipped.
func ReadJSONL(r io.Reader) (*FactSet, error) {
	fs := &FactSet{}
	sc := bufio.NewScanner(r)
	// Allow reasonably large lines (long module paths, metadata).
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("facts: invalid JSONL at line %d: %w", lineNo, err)
		}
		switch {
		case rec.Module != nil && rec.Edge != nil:
			return nil, fmt.Errorf("facts: both module and edge at line %d", lineNo)
		case rec.Module != nil:
			if rec.Module.ID == "" {
				return nil, fmt.Errorf("facts: module missing id at line %d", lineNo)
			}
			fs.Modules = append(fs.Modules, *rec.Module)
		case rec.Edge != nil:
			if rec.Edge.From == "" || rec.Edge.To == "" {
				return nil, fmt.Errorf("facts: edge missing endpoint at line %d", lineNo)
			}
			fs.Edges = append(fs.Edges, *rec.Edge)
		default:
			return nil, fmt.Errorf("facts: empty record at line %d", lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return fs, nil
}
