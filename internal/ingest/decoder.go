package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// DecodeRecords parses the content of one input file into raw JSON records.
//
// Two formats are accepted, detected by the first non-whitespace byte:
//   - '[' : the whole document is a single JSON array of records
//   - anything else: newline-delimited JSON, one record per line,
//     blank lines skipped
//
// A syntax error anywhere makes the whole file malformed: DecodeRecords
// returns a *tikiload.MalformedFileError carrying the file name and the
// line/column of the failure, and the caller is expected to skip the file.
func DecodeRecords(data []byte, fileName string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		return decodeArray(data, fileName)
	}
	return decodeLines(data, fileName)
}

func decodeArray(data []byte, fileName string) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		line, col := offsetToLineCol(data, syntaxOffset(err, data))
		return nil, &tikiload.MalformedFileError{
			File:   fileName,
			Line:   line,
			Column: col,
			Err:    err,
		}
	}
	return records, nil
}

func decodeLines(data []byte, fileName string) ([]json.RawMessage, error) {
	var records []json.RawMessage
	offset := 0

	for lineNum := 1; offset < len(data); lineNum++ {
		end := bytes.IndexByte(data[offset:], '\n')
		var line []byte
		if end == -1 {
			line = data[offset:]
			end = len(data) - offset
		} else {
			line = data[offset : offset+end]
			end++ // consume the newline
		}

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			if !json.Valid(trimmed) {
				// Re-decode to get the column of the failure within the line.
				var probe json.RawMessage
				err := json.Unmarshal(trimmed, &probe)
				_, col := offsetToLineCol(trimmed, syntaxOffset(err, trimmed))
				return nil, &tikiload.MalformedFileError{
					File:   fileName,
					Line:   lineNum,
					Column: col,
					Err:    fmt.Errorf("invalid JSON on line %d: %v", lineNum, err),
				}
			}
			rec := make(json.RawMessage, len(trimmed))
			copy(rec, trimmed)
			records = append(records, rec)
		}

		offset += end
	}

	return records, nil
}

// syntaxOffset extracts the byte offset from a JSON decoding error, falling
// back to the end of the input when the error carries no position.
func syntaxOffset(err error, data []byte) int64 {
	if syn, ok := err.(*json.SyntaxError); ok {
		return syn.Offset
	}
	if typ, ok := err.(*json.UnmarshalTypeError); ok {
		return typ.Offset
	}
	return int64(len(data))
}

// offsetToLineCol converts a byte offset into 1-based line and column numbers.
func offsetToLineCol(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
