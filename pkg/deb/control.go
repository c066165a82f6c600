package deb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// controlField is one field of a paragraph. Fields keep the exact
// spelling and order they were inserted with so that an edited file
// round-trips unchanged.
type controlField struct {
	Name  string
	Value string
}

// ControlParagraph is one stanza of a Debian control file: an ordered
// set of fields with unique, case-sensitive names.
//
// https://www.debian.org/doc/debian-policy/ch-controlfields.html#syntax-of-control-files
type ControlParagraph struct {
	fields []controlField
}

// NewControlParagraph returns an empty paragraph.
func NewControlParagraph() *ControlParagraph {
	return &ControlParagraph{}
}

func (p *ControlParagraph) find(name string) int {
	for i, f := range p.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// HasEntry reports whether the paragraph carries the named field.
func (p *ControlParagraph) HasEntry(name string) bool {
	return p.find(name) != -1
}

// GetEntry returns the value of the named field, if present.
func (p *ControlParagraph) GetEntry(name string) (string, bool) {
	if i := p.find(name); i != -1 {
		return p.fields[i].Value, true
	}
	return "", false
}

// AddEntry appends a new field. It is an error to add a field that is
// already present; callers use it only after establishing absence.
func (p *ControlParagraph) AddEntry(name, value string) error {
	if p.HasEntry(name) {
		return fmt.Errorf("control paragraph already has a %s field", name)
	}
	p.fields = append(p.fields, controlField{Name: name, Value: value})
	return nil
}

// UpdateEntry overwrites the named field in place, or appends it if it
// does not exist yet.
func (p *ControlParagraph) UpdateEntry(name, value string) {
	if i := p.find(name); i != -1 {
		p.fields[i].Value = value
		return
	}
	p.fields = append(p.fields, controlField{Name: name, Value: value})
}

// Clone returns a deep copy of the paragraph.
func (p *ControlParagraph) Clone() *ControlParagraph {
	return &ControlParagraph{fields: append([]controlField(nil), p.fields...)}
}

// Len returns the number of fields in the paragraph.
func (p *ControlParagraph) Len() int {
	return len(p.fields)
}

// WriteTo serializes the paragraph, folding multi-line values with a
// single leading space on continuation lines.
func (p *ControlParagraph) WriteTo(w io.Writer) error {
	for _, f := range p.fields {
		value := strings.ReplaceAll(f.Value, "\n", "\n ")
		if _, err := fmt.Fprintf(w, "%s: %s\n", f.Name, value); err != nil {
			return err
		}
	}
	return nil
}

// ControlFile is an ordered sequence of paragraphs. The first paragraph
// is the source stanza, the rest describe binary packages.
type ControlFile struct {
	paragraphs []*ControlParagraph
}

// NewControlFile returns a control file with no paragraphs.
func NewControlFile() *ControlFile {
	return &ControlFile{}
}

// AddParagraph appends a paragraph to the file.
func (cf *ControlFile) AddParagraph(p *ControlParagraph) {
	cf.paragraphs = append(cf.paragraphs, p)
}

// Paragraphs returns the paragraphs in file order.
func (cf *ControlFile) Paragraphs() []*ControlParagraph {
	return cf.paragraphs
}

// ParseControl reads paragraphs separated by blank lines. A line
// starting with whitespace continues the previous field's value.
func ParseControl(r io.Reader) (*ControlFile, error) {
	cf := NewControlFile()
	current := NewControlParagraph()
	var lastField string

	flush := func() {
		if current.Len() > 0 {
			cf.AddParagraph(current)
			current = NewControlParagraph()
		}
		lastField = ""
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case line[0] == ' ' || line[0] == '\t':
			if lastField == "" {
				return nil, &ParseError{Text: line, Msg: "continuation line without a field"}
			}
			value, _ := current.GetEntry(lastField)
			current.UpdateEntry(lastField, value+"\n"+strings.TrimLeft(line, " \t"))
		default:
			name, value, found := strings.Cut(line, ":")
			if !found {
				return nil, &ParseError{Text: line, Msg: "malformed control line"}
			}
			if err := current.AddEntry(name, strings.TrimSpace(value)); err != nil {
				return nil, err
			}
			lastField = name
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading control file: %w", err)
	}
	flush()
	return cf, nil
}

// LoadControlFile parses the control file at path.
func LoadControlFile(path string) (*ControlFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ParseControl(f)
}

// WriteTo serializes all paragraphs with one blank line between them.
func (cf *ControlFile) WriteTo(w io.Writer) error {
	for i, p := range cf.paragraphs {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := p.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// Serialize writes the control file atomically: the content goes to a
// temporary file in the same directory which is then renamed over path.
func (cf *ControlFile) Serialize(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".control-*")
	if err != nil {
		return fmt.Errorf("creating temporary control file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := cf.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming control file into place: %w", err)
	}
	return nil
}
