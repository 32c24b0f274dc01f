// Package bpmn extracts KPI annotations and element names from BPMN 2.0
// diagram XML. The parser walks only the process subtree and tolerates both
// default-namespace and explicitly prefixed attribute forms.
package bpmn

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const (
	// ModelNS is the BPMN 2.0 model namespace.
	ModelNS = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	// CamundaNS is the extension namespace carrying KPI properties.
	CamundaNS = "http://camunda.org/schema/1.0/bpmn"
)

// Recognized annotation property keys. Other keys are ignored but never
// rejected.
const (
	PropKPIKey    = "kpi_key"
	PropKPITarget = "kpi_target"
	PropOwner     = "owner"
)

// AnnotationRow is the derived view of a process element that carries at
// least one annotation property. Absent properties default to empty strings.
type AnnotationRow struct {
	ElementID   string
	ElementName string
	KPIKey      string
	KPITarget   string
	Owner       string
}

// MalformedError reports that diagram text was not well-formed XML. It is
// surfaced distinctly from network failures so the user knows to fix the
// file rather than retry the fetch.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return "bpmn: malformed diagram XML: " + e.Err.Error()
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// nameCandidates is the ordered list of attribute keys tried when resolving
// an element's name. The first present value wins; both the default and the
// explicitly namespaced form must be checked.
var nameCandidates = []xml.Name{
	{Local: "name"},
	{Space: ModelNS, Local: "name"},
}

// element accumulates annotation properties for one identified node while
// its subtree is still open.
type element struct {
	id    string
	name  string
	depth int
	props map[string]string
}

// ExtractAnnotations walks every element with an identifier inside the
// process subtree and collects nested annotation name/value entries. A row
// is emitted only for elements with at least one property, in document
// order.
func ExtractAnnotations(diagramXML string) ([]AnnotationRow, error) {
	elements, err := walk(diagramXML)
	if err != nil {
		return nil, err
	}
	var rows []AnnotationRow
	for _, el := range elements {
		if len(el.props) == 0 {
			continue
		}
		rows = append(rows, AnnotationRow{
			ElementID:   el.id,
			ElementName: el.name,
			KPIKey:      el.props[PropKPIKey],
			KPITarget:   el.props[PropKPITarget],
			Owner:       el.props[PropOwner],
		})
	}
	return rows, nil
}

// ExtractNamedElements collects every process element's resolved name,
// skipping unnamed elements, deduplicated in first-occurrence order.
func ExtractNamedElements(diagramXML string) ([]string, error) {
	elements, err := walk(diagramXML)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var names []string
	for _, el := range elements {
		if el.name == "" {
			continue
		}
		if _, ok := seen[el.name]; ok {
			continue
		}
		seen[el.name] = struct{}{}
		names = append(names, el.name)
	}
	return names, nil
}

// walk parses the document and returns, in document order, every identified
// element strictly below a process node, with its collected properties.
//
// The whole document is tokenized even after the process subtree closes so
// that malformed markup anywhere in the file is still reported.
func walk(diagramXML string) ([]*element, error) {
	dec := xml.NewDecoder(strings.NewReader(diagramXML))

	var (
		result       []*element
		open         []*element // identified elements whose subtree is still open
		depth        int
		processDepth = -1 // depth of the enclosing process start tag, -1 outside
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedError{Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			inProcess := processDepth >= 0 && depth > processDepth
			if t.Name.Local == "process" && !inProcess {
				processDepth = depth
				break
			}
			if !inProcess {
				break
			}
			if t.Name.Local == "property" {
				// A property enriches every open identified ancestor,
				// matching a descendant-axis lookup.
				key := attrValue(t.Attr, xml.Name{Local: "name"})
				value := attrValue(t.Attr, xml.Name{Local: "value"})
				for _, el := range open {
					el.props[key] = value
				}
			}
			if id := attrValue(t.Attr, xml.Name{Local: "id"}); id != "" {
				el := &element{
					id:    id,
					name:  firstAttr(t.Attr, nameCandidates),
					depth: depth,
					props: make(map[string]string),
				}
				open = append(open, el)
				result = append(result, el)
			}
		case xml.EndElement:
			for len(open) > 0 && open[len(open)-1].depth == depth {
				open = open[:len(open)-1]
			}
			if depth == processDepth {
				processDepth = -1
			}
			depth--
		}
	}

	if depth != 0 {
		return nil, &MalformedError{Err: errors.New("unexpected end of document")}
	}
	return result, nil
}

// firstAttr returns the first present value among the candidate attribute
// keys, or "" when none match.
func firstAttr(attrs []xml.Attr, candidates []xml.Name) string {
	for _, want := range candidates {
		for _, a := range attrs {
			if a.Name.Local == want.Local && a.Name.Space == want.Space {
				return a.Value
			}
		}
	}
	return ""
}

// attrValue returns the value of the attribute with the given local name,
// regardless of namespace. Annotation attributes are unprefixed in practice
// but some exporters qualify them.
func attrValue(attrs []xml.Attr, name xml.Name) string {
	for _, a := range attrs {
		if a.Name.Local == name.Local {
			return a.Value
		}
	}
	return ""
}
