package xml

import "github.com/tkshop/catalog-service/internal/parsers/charset"

const (
	// AttributePrefix prefixes attribute keys in the decoded tree ("@_domain")
	AttributePrefix = "@_"
	// TextKey holds the trimmed character data of an element
	TextKey = "#text"
)

// KnownNamespaces maps namespace URLs to the prefixes used as tree keys ("wp:post_id").
// Documents may bind these URLs to any prefix; keys always use the canonical one.
var KnownNamespaces = map[string]string{
	"http://wordpress.org/export/1.0/":         "wp",
	"http://wordpress.org/export/1.1/":         "wp",
	"http://wordpress.org/export/1.2/":         "wp",
	"http://wordpress.org/export/1.0/excerpt/": "excerpt",
	"http://wordpress.org/export/1.1/excerpt/": "excerpt",
	"http://wordpress.org/export/1.2/excerpt/": "excerpt",
	"http://purl.org/rss/1.0/modules/content/": "content",
	"http://wellformedweb.org/CommentAPI/":     "wfw",
	"http://purl.org/dc/elements/1.1/":         "dc",
	"http://www.w3.org/XML/1998/namespace":     "xml",
}

// XmlParserOptions represents XML parser options
type XmlParserOptions struct {
	Encoding   charset.Encoding  `json:"encoding,omitempty"`
	Namespaces map[string]string `json:"namespaces,omitempty"` // extra URL -> prefix bindings
}

// DefaultXmlOptions returns default XML parser options
func DefaultXmlOptions() XmlParserOptions {
	return XmlParserOptions{
		Encoding: charset.EncodingAuto,
	}
}
