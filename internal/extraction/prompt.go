package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/curator/internal/models"
)

const systemPrompt = `You are an archival metadata specialist. You describe records using the Dublin Core element set and the ISAD(G) General International Standard Archival Description.

INSTRUCTIONS:
1. Read the document content and identify only what it actually supports.
2. Fill the Dublin Core and ISAD(G) fields listed in the output format.
   - date: use YYYY-MM-DD when a full date is known, otherwise YYYY
   - language: an ISO 639-1 code such as "id" or "en"
   - type: the kind of document (report, letter, memo, minutes, ...)
   - format: derive it from the file name when possible
   - level_of_description: fonds, series, file or item
3. Leave a field as "" when the content gives no evidence for it. Do not invent values.
4. Give a confidence_score between 0 and 1 reflecting how clear the content was.
5. Use extraction_notes for difficulties you met and suggestions for metadata that is missing or should be improved.

OUTPUT FORMAT:
Respond with ONLY a JSON object:

{
  "dublin_core": {
    "title": "",
    "creator": "",
    "subject": "",
    "description": "",
    "publisher": "",
    "date": "",
    "type": "",
    "format": "",
    "language": "",
    "rights": ""
  },
  "isad_g": {
    "reference_code": "",
    "title": "",
    "date": "",
    "level_of_description": "",
    "name_of_creator": "",
    "scope_and_content": "",
    "language_of_material": ""
  },
  "confidence_score": 0.0,
  "extraction_notes": [],
  "suggestions": []
}`

// buildExtractionPrompt embeds the (already truncated) content.
func buildExtractionPrompt(content, fileName string) string {
	if fileName == "" {
		fileName = "(unknown)"
	}
	return fmt.Sprintf("File name: %s\n\nContent:\n%s\n\nExtract the archival metadata as JSON.", fileName, content)
}

const suggestSystemPrompt = `You review archival metadata against Dublin Core and ISAD(G) best practice. Suggest improvements covering:
1. Missing or incomplete fields
2. Format corrections and standardization
3. Additional metadata that would improve findability
4. Consistency with Dublin Core and ISAD(G)

Respond with one suggestion per line and nothing else.`

func buildSuggestPrompt(rec models.Record) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Current metadata:\n%s", data), nil
}

// parseSuggestions splits a line-oriented reply into suggestions, dropping
// blank lines, headings and list markers.
func parseSuggestions(raw string) []string {
	out := []string{}
	for _, line := range strings.Split(stripCodeFence(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimLeft(line, "-*• ")
		if i := strings.IndexAny(line, ".)"); i > 0 && i <= 3 && isDigits(line[:i]) {
			line = strings.TrimSpace(line[i+1:])
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
