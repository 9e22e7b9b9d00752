package loader

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/ludo-technologies/cloneval/domain"
)

// readXML walks the token stream of a clone report and decodes one <clone>
// element at a time into c
func (l *SourceLoader) readXML(ctx context.Context, source string, r io.Reader, c *collector) error {
	decoder := xml.NewDecoder(r)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tok, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return malformedReport(source, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "clone" {
			continue
		}

		line, _ := decoder.InputPos()
		var clone xmlClone
		if err := decoder.DecodeElement(&clone, &start); err != nil {
			return malformedReport(source, err)
		}

		rec, err := decodeXMLClone(source, line, clone)
		if err != nil {
			c.skip(err)
			continue
		}
		c.add(rec)
	}
}

func malformedReport(source string, err error) error {
	return domain.NewConfigError(
		fmt.Sprintf("clone report %s is not well-formed XML", source),
		domain.NewParseError(source, err),
	)
}
