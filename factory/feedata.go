package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/fees"
)

// FeeEstimateItemJSON is one element of the persisted fee_estimate_data
// array: the activity with its current entry fields flattened in.
type FeeEstimateItemJSON struct {
	ID             string     `json:"id"`
	Category       string     `json:"category"`
	Label          string     `json:"label"`
	PartnerHours   core.Hours `json:"partner_hours"`
	ManagerHours   core.Hours `json:"manager_hours"`
	ExecutiveHours core.Hours `json:"executive_hours"`
	SecretaryHours core.Hours `json:"secretary_hours"`
	Notes          string     `json:"notes"`
}

// EncodeFeeEstimate renders activities and their entries as the
// fee_estimate_data string. Activities without an entry are written with
// zero hours so the stored array mirrors the template.
func EncodeFeeEstimate(activities []fees.Activity, entries fees.FeeEntries) (string, error) {
	items := make([]FeeEstimateItemJSON, 0, len(activities))
	for _, a := range activities {
		e := entries[a.ID]
		items = append(items, FeeEstimateItemJSON{
			ID:             a.ID,
			Category:       string(a.Category),
			Label:          a.Label,
			PartnerHours:   e.PartnerHours,
			ManagerHours:   e.ManagerHours,
			ExecutiveHours: e.ExecutiveHours,
			SecretaryHours: e.SecretaryHours,
			Notes:          e.Notes,
		})
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode fee estimate: %w", err)
	}
	return string(b), nil
}

// DecodeFeeEstimate is the tolerant inverse of EncodeFeeEstimate. Empty
// or malformed data gives no activities and an empty entry map.
func DecodeFeeEstimate(data string) ([]fees.Activity, fees.FeeEntries) {
	items := decodeArray[FeeEstimateItemJSON](json.RawMessage(data))
	entries := make(fees.FeeEntries, len(items))
	var activities []fees.Activity
	for _, item := range items {
		a, ok := ActivityJSON{ID: item.ID, Category: item.Category, Label: item.Label}.toActivity()
		if !ok {
			continue
		}
		if _, dup := entries[a.ID]; dup {
			continue
		}
		activities = append(activities, a)
		entries[a.ID] = fees.FeeEntry{
			PartnerHours:   item.PartnerHours,
			ManagerHours:   item.ManagerHours,
			ExecutiveHours: item.ExecutiveHours,
			SecretaryHours: item.SecretaryHours,
			Notes:          item.Notes,
		}
	}
	return activities, entries
}

// MergeEstimate lays a saved estimate over the template activities:
// template order and labels win, saved hours are carried across, and
// saved activities no longer in any template are appended.
func MergeEstimate(template []fees.Activity, saved []fees.Activity, entries fees.FeeEntries) ([]fees.Activity, fees.FeeEntries) {
	out := make([]fees.Activity, 0, len(template)+len(saved))
	seen := make(map[string]bool, len(template))
	for _, a := range template {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	for _, a := range saved {
		if !seen[a.ID] {
			seen[a.ID] = true
			out = append(out, a)
		}
	}
	return out, entries.Clone()
}
