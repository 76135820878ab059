/*
Package factory converts stored JSON into fee-engine values.

PURPOSE:
  Activity templates and saved fee estimates live in the record store as
  JSON. This package decodes them into fees.Activity / fees.FeeEntries
  and encodes the working estimate back for UpdateCase.

TOLERANCE:
  Stored JSON is user-adjacent and frequently half-formed. Nothing here
  fails on bad data: malformed payloads decode to empty, bad hour values
  decode to zero, unknown categories are kept as-is (they aggregate into
  no category and surface through the ledger's dropped list).

TEMPLATE_DATA FORMS:
  Stores disagree on whether template_data is a JSON-encoded string or
  an already decoded array. Both are accepted:
    "template_data": "[{\"id\":\"a1\",...}]"
    "template_data": [{"id":"a1",...}]

SEE ALSO:
  - feedata.go: fee_estimate_data encode/decode
  - core/store.go: Template record
*/
package factory

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/fees"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ActivityJSON is the stored form of an activity.
type ActivityJSON struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Label    string `json:"label"`
}

func (a ActivityJSON) toActivity() (fees.Activity, bool) {
	id := strings.TrimSpace(a.ID)
	if id == "" {
		return fees.Activity{}, false
	}
	category, _ := fees.ParseCategory(a.Category)
	return fees.Activity{ID: id, Category: category, Label: a.Label}, true
}

// =============================================================================
// TEMPLATE DECODING
// =============================================================================

// ParseTemplateData decodes a template_data payload. Malformed input
// yields nil; activities without an id are skipped.
func ParseTemplateData(raw json.RawMessage) []fees.Activity {
	items := decodeArray[ActivityJSON](raw)
	var out []fees.Activity
	for _, item := range items {
		if a, ok := item.toActivity(); ok {
			out = append(out, a)
		}
	}
	return out
}

// ActivitiesFromTemplates flattens every template, keeping the first
// activity seen for each id.
func ActivitiesFromTemplates(templates []core.Template) []fees.Activity {
	seen := make(map[string]bool)
	var out []fees.Activity
	for _, t := range templates {
		for _, a := range ParseTemplateData(t.TemplateData) {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, a)
		}
	}
	return out
}

// decodeArray reads a JSON array of T, or a JSON string holding one.
func decodeArray[T any](raw json.RawMessage) []T {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil
		}
		raw = bytes.TrimSpace([]byte(inner))
		if len(raw) == 0 {
			return nil
		}
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
