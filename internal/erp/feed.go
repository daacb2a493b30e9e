package erp

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// decodeCollection accepts either the OData JSON envelope or an Atom
// XML feed and returns the contained entities.
func decodeCollection(resp *http.Response) ([]entity, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erp: read response: %w", err)
	}
	if isXML(resp, body) {
		return parseFeed(body)
	}

	var envelope struct {
		D struct {
			Results []entity `json:"results"`
		} `json:"d"`
		Value []entity `json:"value"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("erp: decode collection: %w", err)
	}
	if envelope.D.Results != nil {
		return envelope.D.Results, nil
	}
	return envelope.Value, nil
}

// decodeEntity accepts a single entity, wrapped in the "d" envelope or
// bare, in JSON or XML.
func decodeEntity(resp *http.Response) (entity, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erp: read response: %w", err)
	}
	if isXML(resp, body) {
		entities, err := parseFeed(body)
		if err != nil {
			return nil, err
		}
		if len(entities) == 0 {
			return nil, errors.New("erp: empty entry")
		}
		return entities[0], nil
	}

	var envelope struct {
		D json.RawMessage `json:"d"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("erp: decode entity: %w", err)
	}
	raw := envelope.D
	if raw == nil {
		raw = body
	}
	var e entity
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("erp: decode entity: %w", err)
	}
	return e, nil
}

func isXML(resp *http.Response, body []byte) bool {
	if strings.Contains(resp.Header.Get("Content-Type"), "xml") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// Atom structural and metadata element names skipped during property
// extraction.
var feedSkipTags = map[string]bool{
	"feed":       true,
	"entry":      true,
	"content":    true,
	"properties": true,
	"id":         true,
	"title":      true,
	"summary":    true,
	"updated":    true,
	"category":   true,
	"link":       true,
	"author":     true,
	"name":       true,
}

// parseFeed extracts entity properties from an Atom XML feed by
// stripping tags: each leaf element inside an entry is captured by its
// local name regardless of namespace.
func parseFeed(data []byte) ([]entity, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		entities []entity
		current  entity
		field    string
		text     strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("erp: parse feed: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "entry" {
				current = entity{}
				continue
			}
			if current != nil && !feedSkipTags[t.Name.Local] {
				field = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if field != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "entry" {
				if current != nil {
					entities = append(entities, current)
				}
				current = nil
				continue
			}
			if current != nil && field == t.Name.Local {
				current[field] = text.String()
				field = ""
			}
		}
	}
	return entities, nil
}
