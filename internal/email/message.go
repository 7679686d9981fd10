// Package email defines the fixed email record exchanged between the XML
// writer and reader.
package email

// Party is one end of the message: a display name and a mailbox address.
type Party struct {
	Name    string
	Address string
}

// String formats the party as "Name <address>", or just the address when
// no name is set.
func (p Party) String() string {
	if p.Name == "" {
		return p.Address
	}
	return p.Name + " <" + p.Address + ">"
}

// Record is the single entity persisted by this module.
type Record struct {
	From    Party
	To      Party
	Subject string
	Body    string
}

// FieldID identifies one textual field of a Record.
type FieldID string

// Field identifiers, in document order.
const (
	FieldFromName    FieldID = "from_name"
	FieldFromAddress FieldID = "from_address"
	FieldToName      FieldID = "to_name"
	FieldToAddress   FieldID = "to_address"
	FieldSubject     FieldID = "subject"
	FieldBody        FieldID = "body"
)

// Fields lists every field ID in document order.
var Fields = []FieldID{
	FieldFromName,
	FieldFromAddress,
	FieldToName,
	FieldToAddress,
	FieldSubject,
	FieldBody,
}

// Field returns the value of the field identified by id, or "" for an
// unknown id.
func (r *Record) Field(id FieldID) string {
	switch id {
	case FieldFromName:
		return r.From.Name
	case FieldFromAddress:
		return r.From.Address
	case FieldToName:
		return r.To.Name
	case FieldToAddress:
		return r.To.Address
	case FieldSubject:
		return r.Subject
	case FieldBody:
		return r.Body
	default:
		return ""
	}
}

// Missing returns the IDs of fields that are empty.
func (r *Record) Missing() []FieldID {
	var missing []FieldID
	for _, id := range Fields {
		if r.Field(id) == "" {
			missing = append(missing, id)
		}
	}
	return missing
}

// Complete reports whether every field is set.
func (r *Record) Complete() bool {
	return len(r.Missing()) == 0
}

// Sample returns the record written on first run.
func Sample() Record {
	return Record{
		From:    Party{Name: "David", Address: "ddandres@disca.upv.es"},
		To:      Party{Name: "Juan Carlos", Address: "jcruizg@disca.upv.es"},
		Subject: "Next class",
		Body:    "Remember to bring your smartphone to the next class",
	}
}
