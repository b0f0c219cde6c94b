package fgdtiles

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Handler receives the events of a document in document order. Text may be
// delivered in several consecutive calls.
type Handler interface {
	StartElement(name string)
	Characters(text []byte)
	EndElement(name string) error
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// ParseXML drives h with the elements of r. Element names keep their
// namespace prefix as written, e.g. "gml:posList". Mismatched end tags and
// elements left open at the end of the input fail the document.
func ParseXML(r io.Reader, h Handler) error {
	d := xml.NewDecoder(r)
	d.CharsetReader = charsetReader

	open := make([]string, 0, 16)
	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			if len(open) > 0 {
				return fmt.Errorf("unclosed element <%s>: %w", open[len(open)-1], io.ErrUnexpectedEOF)
			}
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := qualifiedName(t.Name)
			open = append(open, name)
			h.StartElement(name)
		case xml.CharData:
			h.Characters(t)
		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(open) == 0 || open[len(open)-1] != name {
				line, _ := d.InputPos()
				return &xml.SyntaxError{Msg: "unexpected end element </" + name + ">", Line: line}
			}
			open = open[:len(open)-1]

			err := h.EndElement(name)
			if err != nil {
				return err
			}
		}
	}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "utf-8", "utf8", "us-ascii":
		return input, nil
	case "shift_jis", "shift-jis", "sjis", "windows-31j", "cp932":
		return transform.NewReader(input, japanese.ShiftJIS.NewDecoder()), nil
	case "euc-jp":
		return transform.NewReader(input, japanese.EUCJP.NewDecoder()), nil
	case "iso-2022-jp":
		return transform.NewReader(input, japanese.ISO2022JP.NewDecoder()), nil
	}
	return nil, fmt.Errorf("Unsupported charset: %s", label)
}

var declEncoding = regexp.MustCompile(`<\?xml[^>]*encoding=["']([A-Za-z0-9_.:-]+)["']`)

// utf8Reader converts r to UTF-8 based on its XML declaration, for
// documents that are read line by line rather than through ParseXML.
func utf8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, 4096)
	head, err := br.Peek(256)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	m := declEncoding.FindSubmatch(head)
	if m == nil {
		return br, nil
	}
	return charsetReader(string(bytes.ToLower(m[1])), br)
}
