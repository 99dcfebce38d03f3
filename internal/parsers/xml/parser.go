package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tkshop/catalog-service/internal/parsers/charset"
)

// ErrNoRootElement is returned for input that contains no XML element at all
var ErrNoRootElement = errors.New("document has no root element")

// Parser decodes XML into a generic attributed tree.
// Elements become map[string]interface{}; repeated child elements become []interface{}.
type Parser struct {
	options XmlParserOptions
}

// NewParser creates a new XML parser with the given options
func NewParser(options XmlParserOptions) *Parser {
	if options.Encoding == "" {
		options.Encoding = charset.EncodingAuto
	}
	return &Parser{options: options}
}

// Parse decodes content into a tree rooted at a map holding the document element
func (p *Parser) Parse(content []byte) (map[string]interface{}, error) {
	decoded, err := charset.Decode(content, p.options.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	decoder := xml.NewDecoder(bytes.NewReader(decoded))
	decoder.Strict = true
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return input, nil // already UTF-8
	}

	b := &treeBuilder{
		prefixes: make(map[string]string, len(KnownNamespaces)+len(p.options.Namespaces)),
	}
	for url, prefix := range KnownNamespaces {
		b.prefixes[url] = prefix
	}
	for url, prefix := range p.options.Namespaces {
		b.prefixes[url] = prefix
	}

	tree, err := b.decodeElement(decoder, nil)
	if err != nil {
		return nil, err
	}
	if !hasElement(tree) {
		if strings.TrimSpace(string(decoded)) == "" {
			return tree, nil
		}
		return nil, ErrNoRootElement
	}
	return tree, nil
}

type treeBuilder struct {
	prefixes map[string]string
}

// decodeElement recursively decodes XML elements into maps
func (b *treeBuilder) decodeElement(decoder *xml.Decoder, start *xml.StartElement) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	if start != nil {
		for _, attr := range start.Attr {
			if isNamespaceDecl(attr.Name) {
				continue
			}
			result[AttributePrefix+b.qualify(attr.Name)] = attr.Value
		}
	}

	var text strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			if start != nil {
				return nil, io.ErrUnexpectedEOF
			}
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			b.register(t.Attr)
			childName := b.qualify(t.Name)

			childValue, err := b.decodeElement(decoder, &t)
			if err != nil {
				return nil, err
			}

			// Handle repeated elements (arrays)
			if existing, exists := result[childName]; exists {
				switch v := existing.(type) {
				case []interface{}:
					result[childName] = append(v, childValue)
				default:
					result[childName] = []interface{}{v, childValue}
				}
			} else {
				result[childName] = childValue
			}

		case xml.CharData:
			text.Write(t)

		case xml.EndElement:
			if s := strings.TrimSpace(text.String()); s != "" {
				result[TextKey] = s
			}
			return result, nil
		}
	}

	if s := strings.TrimSpace(text.String()); s != "" {
		result[TextKey] = s
	}
	return result, nil
}

// register records namespace declarations so element keys keep readable prefixes
func (b *treeBuilder) register(attrs []xml.Attr) {
	for _, attr := range attrs {
		switch {
		case attr.Name.Space == "xmlns":
			if _, known := b.prefixes[attr.Value]; !known {
				b.prefixes[attr.Value] = attr.Name.Local
			}
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			if _, known := b.prefixes[attr.Value]; !known {
				b.prefixes[attr.Value] = ""
			}
		}
	}
}

func (b *treeBuilder) qualify(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if prefix, ok := b.prefixes[name.Space]; ok {
		if prefix == "" {
			return name.Local
		}
		return prefix + ":" + name.Local
	}
	// encoding/xml leaves undeclared prefixes untranslated
	return name.Space + ":" + name.Local
}

func isNamespaceDecl(name xml.Name) bool {
	return name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns")
}

func hasElement(tree map[string]interface{}) bool {
	for key := range tree {
		if key != TextKey {
			return true
		}
	}
	return false
}

// ValueAtPath retrieves a value at a dot-notation path ("rss.channel.item").
// Segments fall back to a case-insensitive match.
func ValueAtPath(node map[string]interface{}, path string) interface{} {
	var current interface{} = node
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		value, found := m[part]
		if !found {
			for k, v := range m {
				if strings.EqualFold(k, part) {
					value, found = v, true
					break
				}
			}
		}
		if !found {
			return nil
		}
		current = value
	}
	return current
}

// AsSlice normalizes a one-or-many value to a slice. nil yields nil.
func AsSlice(value interface{}) []interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case []interface{}:
		return v
	default:
		return []interface{}{v}
	}
}

// AsMaps normalizes a one-or-many value to element maps, dropping anything else
func AsMaps(value interface{}) []map[string]interface{} {
	items := AsSlice(value)
	result := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			result = append(result, m)
		}
	}
	return result
}

// Text converts a tree value to its trimmed string form.
// Elements yield their text node; repeated elements yield the first non-empty text.
func Text(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		return Text(v[TextKey])
	case []interface{}:
		for _, item := range v {
			if s := Text(item); s != "" {
				return s
			}
		}
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// Attr returns the named attribute of an element, or "" when absent
func Attr(node map[string]interface{}, name string) string {
	if node == nil {
		return ""
	}
	return Text(node[AttributePrefix+name])
}

// Child returns the text of the named child element
func Child(node map[string]interface{}, name string) string {
	if node == nil {
		return ""
	}
	return Text(node[name])
}
