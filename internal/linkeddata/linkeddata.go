package linkeddata

import (
	"strings"

	"github.com/lehigh-university-libraries/curator/internal/models"
)

// Context is the JSON-LD context shared by every document.
var Context = map[string]string{
	"dc":      "http://purl.org/dc/elements/1.1/",
	"dcterms": "http://purl.org/dc/terms/",
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"schema":  "http://schema.org/",
}

// ResourceType is the @type of generated documents.
const ResourceType = "schema:ArchivalResource"

// properties maps Dublin Core fields to JSON-LD property names. Fields not
// listed here are not projected.
var properties = []struct {
	field    string
	property string
}{
	{"title", "dc:title"},
	{"creator", "dc:creator"},
	{"subject", "dc:subject"},
	{"description", "dc:description"},
	{"date", "dc:date"},
	{"type", "dc:type"},
	{"format", "dc:format"},
	{"language", "dc:language"},
}

// Document is a JSON-LD object.
type Document map[string]any

// FromRecord projects the non-blank Dublin Core fields of rec. When id is
// not empty it becomes the document's @id.
func FromRecord(rec models.Record, id string) Document {
	ctx := make(map[string]string, len(Context))
	for k, v := range Context {
		ctx[k] = v
	}

	doc := Document{
		"@context": ctx,
		"@type":    ResourceType,
	}
	if id != "" {
		doc["@id"] = id
	}
	for _, p := range properties {
		if v := rec.DublinCore.Get(p.field); strings.TrimSpace(v) != "" {
			doc[p.property] = v
		}
	}
	return doc
}
