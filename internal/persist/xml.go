package persist

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/shapedtime/tvscraper/internal/library"
)

// XMLCodec reads and writes the legacy layout: one element per node named
// after its kind, attributes as XML attributes, the ID in an id attribute.
//
//	<tvscraper>
//	  <tvshow id="..." title="...">
//	    <season id="..." n="1" status="watched">...</season>
//	  </tvshow>
//	</tvscraper>
type XMLCodec struct{}

type xmlElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",any,attr"`
	Children []xmlElement `xml:",any"`
}

func (XMLCodec) Marshal(doc *library.Document) ([]byte, error) {
	root := xmlElement{XMLName: xml.Name{Local: string(library.KindRoot)}}
	if doc != nil {
		root.Children = toXML(doc.Nodes)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func toXML(nodes []*library.DocNode) []xmlElement {
	out := make([]xmlElement, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		el := xmlElement{XMLName: xml.Name{Local: string(n.Kind)}}
		el.Attrs = append(el.Attrs, xml.Attr{Name: xml.Name{Local: "id"}, Value: n.ID})

		keys := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			if k != "id" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			el.Attrs = append(el.Attrs, xml.Attr{Name: xml.Name{Local: k}, Value: n.Attrs[k]})
		}

		el.Children = toXML(n.Children)
		out = append(out, el)
	}
	return out
}

func (XMLCodec) Unmarshal(data []byte) (*library.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyDocument(), nil
	}

	var root xmlElement
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.XMLName.Local != string(library.KindRoot) {
		return nil, fmt.Errorf("%w: root element %q", library.ErrInvalidDocument, root.XMLName.Local)
	}

	return &library.Document{Nodes: fromXML(root.Children)}, nil
}

func fromXML(elements []xmlElement) []*library.DocNode {
	if len(elements) == 0 {
		return nil
	}
	out := make([]*library.DocNode, 0, len(elements))
	for _, el := range elements {
		n := &library.DocNode{
			Kind:  library.Kind(el.XMLName.Local),
			Attrs: make(map[string]string, len(el.Attrs)),
		}
		for _, a := range el.Attrs {
			if a.Name.Local == "id" {
				n.ID = a.Value
				continue
			}
			n.Attrs[a.Name.Local] = a.Value
		}
		n.Children = fromXML(el.Children)
		out = append(out, n)
	}
	return out
}
