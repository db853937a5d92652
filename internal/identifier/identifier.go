package identifier

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/labsearch/internal/schema"
)

// Identifier is a parsed identifier. Empty fields are absent segments.
type Identifier struct {
	Space     string
	Project   string
	Container string
	Code      string
	Type      string
}

// String renders the identifier in canonical form.
func (id Identifier) String() string {
	if id.Type != "" {
		return id.Code + " (" + id.Type + ")"
	}
	var b strings.Builder
	if id.Space != "" {
		b.WriteString("/" + id.Space)
	}
	if id.Project != "" {
		b.WriteString("/" + id.Project)
	}
	if id.Space != "" || id.Project != "" || id.Container != "" {
		b.WriteString("/")
	}
	if id.Container != "" {
		b.WriteString(id.Container + ":")
	}
	b.WriteString(id.Code)
	return b.String()
}

// Error is a malformed identifier or one using a segment the entity kind
// does not have.
type Error struct {
	Text    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identifier %q: %s", e.Text, e.Message)
}

// Normalize upper-cases identifier text the way Parse does.
func Normalize(text string) string {
	// Casers are stateful; one per call.
	return cases.Upper(language.Und).String(strings.TrimSpace(text))
}

// Parse parses text as an identifier of entity e.
func Parse(e *schema.Entity, text string) (Identifier, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Identifier{}, &Error{Text: text, Message: "empty identifier"}
	}
	norm := Normalize(raw)
	fail := func(format string, args ...any) (Identifier, error) {
		return Identifier{}, &Error{Text: text, Message: fmt.Sprintf(format, args...)}
	}

	if e.SupportsSegment(schema.SegmentType) {
		return parseMaterial(norm, fail)
	}

	var id Identifier
	parts := []string{norm}
	if strings.HasPrefix(norm, "/") {
		parts = strings.Split(norm[1:], "/")
	}
	for _, p := range parts {
		if p == "" {
			return fail("empty segment")
		}
	}

	last := parts[len(parts)-1]
	if i := strings.Index(last, ":"); i >= 0 {
		id.Container, id.Code = last[:i], last[i+1:]
		if id.Container == "" || id.Code == "" || strings.Contains(id.Code, ":") {
			return fail("malformed container segment %q", last)
		}
	} else {
		id.Code = last
	}

	switch len(parts) {
	case 1:
	case 2:
		id.Space = parts[0]
	case 3:
		id.Space, id.Project = parts[0], parts[1]
	default:
		return fail("too many segments")
	}

	if err := checkSegments(e, id); err != nil {
		return fail("%s", err.Error())
	}
	return id, nil
}

func parseMaterial(norm string, fail func(string, ...any) (Identifier, error)) (Identifier, error) {
	open := strings.LastIndex(norm, "(")
	if open < 0 || !strings.HasSuffix(norm, ")") {
		if strings.ContainsAny(norm, "/:()") {
			return fail("material identifiers have the form CODE (TYPE)")
		}
		return Identifier{Code: norm}, nil
	}
	code := strings.TrimSpace(norm[:open])
	typ := strings.TrimSpace(norm[open+1 : len(norm)-1])
	if code == "" || typ == "" {
		return fail("material identifiers have the form CODE (TYPE)")
	}
	return Identifier{Code: code, Type: typ}, nil
}

func checkSegments(e *schema.Entity, id Identifier) error {
	present := []struct {
		seg schema.Segment
		val string
	}{
		{schema.SegmentSpace, id.Space},
		{schema.SegmentProject, id.Project},
		{schema.SegmentContainer, id.Container},
	}
	for _, p := range present {
		if p.val != "" && !e.SupportsSegment(p.seg) {
			return fmt.Errorf("%s identifiers have no %s segment", strings.ToLower(string(e.Kind)), p.seg)
		}
	}
	return nil
}
