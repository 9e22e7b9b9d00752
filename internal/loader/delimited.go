package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/ludo-technologies/cloneval/domain"
)

// readDelimited streams rows of a delimited source into c, one record at a time
func (l *SourceLoader) readDelimited(ctx context.Context, source string, r io.Reader, c *collector) error {
	reader := csv.NewReader(r)
	reader.Comma = l.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	skipHeader := l.skipsHeader(source)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				if skipHeader {
					skipHeader = false
					continue
				}
				c.skip(&domain.MalformedRecordError{
					Source: source,
					Line:   parseErr.StartLine,
					Reason: parseErr.Err.Error(),
				})
				continue
			}
			return domain.NewConfigError(fmt.Sprintf("failed reading %s", source), err)
		}

		if skipHeader {
			skipHeader = false
			continue
		}

		line, _ := reader.FieldPos(0)
		rec, err := DecodeDelimitedRecord(source, line, fields)
		if err != nil {
			c.skip(err)
			continue
		}
		c.add(rec)
	}
}
