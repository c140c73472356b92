package stub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
)

// parseSSML flattens an SSML document. The root element must be <speak>;
// <mark name> becomes a bookmark and <break time> a pause. Other elements
// only contribute their text.
func parseSSML(src string) (document, error) {
	var doc document

	dec := xml.NewDecoder(strings.NewReader(src))
	depth := 0
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return document{}, fmt.Errorf("%w: %w", engine.ErrMalformedSSML, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if sawRoot || t.Name.Local != "speak" {
					return document{}, fmt.Errorf("%w: root element must be <speak>, got <%s>", engine.ErrMalformedSSML, t.Name.Local)
				}
				sawRoot = true
			}
			depth++
			switch t.Name.Local {
			case "mark":
				doc.addBookmark(attr(t, "name"))
			case "break":
				doc.addPause(breakTicks(attr(t, "time")))
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return document{}, fmt.Errorf("%w: text outside <speak>", engine.ErrMalformedSSML)
				}
				continue
			}
			doc.addText(string(t))
		}
	}

	if !sawRoot {
		return document{}, fmt.Errorf("%w: missing <speak> element", engine.ErrMalformedSSML)
	}
	return doc, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// breakTicks converts an SSML time value such as "500ms" or "2s".
func breakTicks(value string) engine.Ticks {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d < 0 {
		return 0
	}
	return engine.Ticks(d / 100)
}
