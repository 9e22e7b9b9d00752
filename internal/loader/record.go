package loader

import (
	"fmt"
	"path/filepath"

	"github.com/ludo-technologies/cloneval/domain"
)

// MinDelimitedFields is the smallest valid delimited row:
// dir1, file1, start1, end1, dir2, file2, start2, end2
const MinDelimitedFields = 8

// FragmentRef locates one side of a clone pair as it appears in a source
type FragmentRef struct {
	Dir       string
	File      string
	StartLine string
	EndLine   string
}

// Path returns Dir/File, or File alone when no directory is recorded
func (f FragmentRef) Path() string {
	if f.Dir == "" {
		return f.File
	}
	return filepath.Join(f.Dir, f.File)
}

// ClonePairRecord is one decoded clone pair
type ClonePairRecord struct {
	Line   int
	First  FragmentRef
	Second FragmentRef
}

// DecodeDelimitedRecord decodes a delimited row. Fields beyond the eighth are
// ignored. Start and end values are kept verbatim.
func DecodeDelimitedRecord(source string, line int, fields []string) (ClonePairRecord, error) {
	if len(fields) < MinDelimitedFields {
		return ClonePairRecord{}, &domain.MalformedRecordError{
			Source: source,
			Line:   line,
			Fields: len(fields),
			Reason: fmt.Sprintf("expected at least %d fields, got %d", MinDelimitedFields, len(fields)),
		}
	}

	rec := ClonePairRecord{
		Line:   line,
		First:  FragmentRef{Dir: fields[0], File: fields[1], StartLine: fields[2], EndLine: fields[3]},
		Second: FragmentRef{Dir: fields[4], File: fields[5], StartLine: fields[6], EndLine: fields[7]},
	}
	if rec.First.File == "" || rec.Second.File == "" {
		return ClonePairRecord{}, &domain.MalformedRecordError{
			Source: source,
			Line:   line,
			Fields: len(fields),
			Reason: "empty file name",
		}
	}
	return rec, nil
}

// xmlSource is a <source> element of a clone report
type xmlSource struct {
	File      string `xml:"file,attr"`
	StartLine string `xml:"startline,attr"`
	EndLine   string `xml:"endline,attr"`
}

// xmlClone is a <clone> element of a clone report
type xmlClone struct {
	Sources []xmlSource `xml:"source"`
}

// decodeXMLClone converts a <clone> element into a record. Anything other
// than exactly two sources is malformed.
func decodeXMLClone(source string, line int, clone xmlClone) (ClonePairRecord, error) {
	if len(clone.Sources) != 2 {
		return ClonePairRecord{}, &domain.MalformedRecordError{
			Source: source,
			Line:   line,
			Fields: len(clone.Sources),
			Reason: fmt.Sprintf("expected 2 source elements, got %d", len(clone.Sources)),
		}
	}

	refs := [2]FragmentRef{}
	for i, s := range clone.Sources {
		if s.File == "" || s.StartLine == "" || s.EndLine == "" {
			return ClonePairRecord{}, &domain.MalformedRecordError{
				Source: source,
				Line:   line,
				Fields: len(clone.Sources),
				Reason: fmt.Sprintf("source %d is missing file, startline or endline", i+1),
			}
		}
		refs[i] = FragmentRef{File: s.File, StartLine: s.StartLine, EndLine: s.EndLine}
	}

	return ClonePairRecord{Line: line, First: refs[0], Second: refs[1]}, nil
}
