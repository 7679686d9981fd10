// Package xmlfile serializes and parses the fixed Email XML document.
//
// The document layout is
//
//	<?xml version='1.0' encoding='UTF-8' ?>
//	<Email>
//	  <From Name="...">address</From>
//	  <To Name="...">address</To>
//	  <Subject>...</Subject>
//	  <Body>...</Body>
//	</Email>
//
// Serialize never emits whitespace between elements.
package xmlfile

import (
	"encoding/xml"
	"io"

	"github.com/shineum/mailxml/internal/email"
)

// Tag and attribute names of the document.
const (
	TagEmail   = "Email"
	TagFrom    = "From"
	TagTo      = "To"
	TagSubject = "Subject"
	TagBody    = "Body"
	AttrName   = "Name"
)

// declaration is the XML declaration written at the top of every document.
var declaration = xml.ProcInst{
	Target: "xml",
	Inst:   []byte("version='1.0' encoding='UTF-8' "),
}

// sinkWriter remembers the first error returned by the underlying sink so
// it can be told apart from encoder errors.
type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil && s.err == nil {
		s.err = err
	}
	return n, err
}

// Serialize writes rec to w as a UTF-8 XML document. The output is
// byte-identical for equal records. Sink failures are returned as *IOError.
// The caller owns w and is responsible for closing it.
func Serialize(w io.Writer, rec email.Record) error {
	sink := &sinkWriter{w: w}
	enc := xml.NewEncoder(sink)

	tokens := []xml.Token{declaration, start(TagEmail)}
	tokens = append(tokens, party(TagFrom, rec.From)...)
	tokens = append(tokens, party(TagTo, rec.To)...)
	tokens = append(tokens, text(TagSubject, rec.Subject)...)
	tokens = append(tokens, text(TagBody, rec.Body)...)
	tokens = append(tokens, start(TagEmail).End())

	for _, tok := range tokens {
		if err := enc.EncodeToken(tok); err != nil {
			return wrapWriteErr(sink, err)
		}
	}
	if err := enc.Flush(); err != nil {
		return wrapWriteErr(sink, err)
	}
	return nil
}

func wrapWriteErr(sink *sinkWriter, err error) error {
	if sink.err != nil {
		return &IOError{Op: "write", Err: sink.err}
	}
	return err
}

func start(name string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
}

func party(tag string, p email.Party) []xml.Token {
	el := start(tag, xml.Attr{Name: xml.Name{Local: AttrName}, Value: p.Name})
	return []xml.Token{el, xml.CharData(p.Address), el.End()}
}

func text(tag, value string) []xml.Token {
	el := start(tag)
	return []xml.Token{el, xml.CharData(value), el.End()}
}
