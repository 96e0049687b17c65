package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/mesh-intelligence/hometree/pkg/tree"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

// seedRecord is one line of a seed file:
//
//	{"path":"/home/kitchen","tag":"room","attrs":{"name":"kitchen","w":"12ft"}}
type seedRecord struct {
	Path  string            `json:"path"`
	Tag   string            `json:"tag"`
	Attrs map[string]string `json:"attrs,omitempty"`
	Text  string            `json:"text,omitempty"`
}

func (r seedRecord) node() types.Node {
	return types.Node{Tag: r.Tag, Attrs: r.Attrs, Text: r.Text}
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		if !json.Valid(b) {
			glog.Infof("[store]%s:%d: skipping malformed line\n", path, line)
			continue
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// readSeed decodes the seed file at path. Lines that are not node records,
// or whose path is not absolute, are skipped.
func readSeed(path string) ([]seedRecord, error) {
	raw, err := readJSONL(path)
	if err != nil {
		return nil, err
	}

	out := make([]seedRecord, 0, len(raw))
	for _, msg := range raw {
		var rec seedRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			glog.Infof("[store]%s: skipping record: %s\n", path, err)
			continue
		}
		if err := tree.Validate(rec.Path); err != nil {
			glog.Infof("[store]%s: skipping record: %s\n", path, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
