package xmlfile

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/shineum/mailxml/internal/email"
)

// UnknownTagPolicy controls what happens to the cursor when the reader meets
// an element it does not recognize.
//
// Under either policy the cursor is scoped to elements: closing any element
// restores the cursor of its parent. Text after </From> never reaches From,
// and an unrecognized sibling of a known element is never captured.
type UnknownTagPolicy int

const (
	// ResetCursor drops the cursor inside unrecognized elements, so their
	// text is discarded. The enclosing field resumes after the element ends:
	// <Subject>a<x>b</x>c</Subject> yields "ac".
	ResetCursor UnknownTagPolicy = iota

	// KeepCursor leaves the cursor where it was, so text inside an
	// unrecognized element nested in a known one is added to that field:
	// <Subject>a<x>b</x>c</Subject> yields "abc".
	KeepCursor
)

// String returns the config spelling of the policy.
func (p UnknownTagPolicy) String() string {
	switch p {
	case ResetCursor:
		return "reset"
	case KeepCursor:
		return "keep"
	default:
		return fmt.Sprintf("UnknownTagPolicy(%d)", int(p))
	}
}

// ParseUnknownTagPolicy maps "reset" or "keep" to a policy.
func ParseUnknownTagPolicy(s string) (UnknownTagPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reset":
		return ResetCursor, nil
	case "keep":
		return KeepCursor, nil
	default:
		return ResetCursor, fmt.Errorf("unknown tag policy %q (want reset or keep)", s)
	}
}

// state is the reader's cursor: which field the next text belongs to.
type state int

const (
	stateIdle state = iota
	stateInFrom
	stateInTo
	stateInSubject
	stateInBody
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateInFrom:
		return "InFrom"
	case stateInTo:
		return "InTo"
	case stateInSubject:
		return "InSubject"
	case stateInBody:
		return "InBody"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// stateFor maps a tag name, compared case-insensitively, to the state it
// enters. ok is false for unrecognized tags.
func stateFor(tag string) (s state, ok bool) {
	switch {
	case strings.EqualFold(tag, TagFrom):
		return stateInFrom, true
	case strings.EqualFold(tag, TagTo):
		return stateInTo, true
	case strings.EqualFold(tag, TagSubject):
		return stateInSubject, true
	case strings.EqualFold(tag, TagBody):
		return stateInBody, true
	default:
		return stateIdle, false
	}
}

// Option configures a Parser.
type Option func(*Parser)

// WithUnknownTags sets the policy applied to unrecognized elements.
func WithUnknownTags(p UnknownTagPolicy) Option {
	return func(parser *Parser) {
		parser.unknownTags = p
	}
}

// Parser reads Email documents. A Parser holds no per-call state and may be
// reused.
type Parser struct {
	unknownTags UnknownTagPolicy
}

// NewParser returns a Parser with the given options applied.
func NewParser(opts ...Option) *Parser {
	p := &Parser{unknownTags: ResetCursor}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse reads a document from r with the default parser.
func Parse(r io.Reader) (email.Record, error) {
	return defaultParser.Parse(r)
}

// Parse reads a document from r in a single forward pass. Missing elements
// leave their fields empty; completeness is not checked. On failure the
// fields populated so far are returned with a *ParseError or *IOError.
func (p *Parser) Parse(r io.Reader) (email.Record, error) {
	var (
		rec        email.Record
		charsetErr error
		sawRoot    bool
		tokens     int
	)

	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		cr, err := charsetReader(label, input)
		if err != nil {
			charsetErr = err
		}
		return cr, err
	}

	// One entry per open element; the top is the current cursor.
	stack := []state{stateIdle}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rec, classify(dec, err, charsetErr)
		}
		first := tokens == 0
		tokens++

		switch t := tok.(type) {
		case xml.ProcInst:
			if t.Target == "xml" && !first {
				return rec, parseErr(dec, errors.New("xml declaration is not the first token"))
			}

		case xml.StartElement:
			if err := checkAttrs(t); err != nil {
				return rec, parseErr(dec, err)
			}
			if len(stack) == 1 {
				if sawRoot {
					return rec, parseErr(dec, errors.New("multiple root elements"))
				}
				sawRoot = true
			}

			next, ok := stateFor(t.Name.Local)
			if !ok {
				next = stateIdle
				if p.unknownTags == KeepCursor {
					next = stack[len(stack)-1]
				}
			}
			enter(&rec, next, t)
			stack = append(stack, next)

		case xml.EndElement:
			// The decoder guarantees tags are balanced.
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 1 {
				if !isXMLSpace(t) {
					return rec, parseErr(dec, errors.New("text outside the root element"))
				}
				continue
			}
			appendText(&rec, stack[len(stack)-1], string(t))
		}
	}

	if !sawRoot {
		return rec, &ParseError{Err: errors.New("no root element")}
	}
	return rec, nil
}

// enter resets the field owned by s when its element starts. Re-entering an
// element replaces the previous value.
func enter(rec *email.Record, s state, el xml.StartElement) {
	if _, known := stateFor(el.Name.Local); !known {
		return
	}
	switch s {
	case stateInFrom:
		rec.From = email.Party{Name: attr(el, AttrName)}
	case stateInTo:
		rec.To = email.Party{Name: attr(el, AttrName)}
	case stateInSubject:
		rec.Subject = ""
	case stateInBody:
		rec.Body = ""
	}
}

func appendText(rec *email.Record, s state, text string) {
	switch s {
	case stateInFrom:
		rec.From.Address += text
	case stateInTo:
		rec.To.Address += text
	case stateInSubject:
		rec.Subject += text
	case stateInBody:
		rec.Body += text
	}
}

// checkAttrs rejects repeated attribute names on one element.
func checkAttrs(el xml.StartElement) error {
	for i, a := range el.Attr {
		for _, b := range el.Attr[:i] {
			if a.Name == b.Name {
				return fmt.Errorf("element <%s> repeats attribute %q", el.Name.Local, a.Name.Local)
			}
		}
	}
	return nil
}

func isXMLSpace(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// attr returns the value of the named attribute, matched case-insensitively.
func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}

// charsetReader decodes documents that declare a non-UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

func classify(dec *xml.Decoder, err, charsetErr error) error {
	if charsetErr != nil {
		return parseErr(dec, charsetErr)
	}
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ParseError{Line: syntaxErr.Line, Err: errors.New(syntaxErr.Msg)}
	}
	return &IOError{Op: "read", Err: err}
}

func parseErr(dec *xml.Decoder, err error) error {
	line, _ := dec.InputPos()
	return &ParseError{Line: line, Err: err}
}
