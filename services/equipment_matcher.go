package services

import (
	"fmt"
	"math"
	"strings"
)

// Equipment cost reconciliation tolerance, in dollars.
const equipmentMatchEpsilon = 0.01

// EquipmentDetail is one row of the GENERAL EQUIPMENT sheet after parsing.
// SourceDiscipline is empty (or "GENERAL") for project-wide equipment.
type EquipmentDetail struct {
	SourceDiscipline string  `json:"source_discipline"`
	EquipmentType    string  `json:"equipment_type"`
	Description      string  `json:"description"`
	Quantity         float64 `json:"quantity"`
	Duration         float64 `json:"duration"`
	DurationType     string  `json:"duration_type"`
	Fueled           bool    `json:"fueled"`
	RateUsed         float64 `json:"rate_used"`
	EquipmentCost    float64 `json:"equipment_cost"`
	FOGCost          float64 `json:"fog_cost"`
	MaintenanceCost  float64 `json:"maintenance_cost"`
	TotalCost        float64 `json:"total_cost"`
	SourceRow        int     `json:"source_row"`
}

// MatchEquipmentToDiscipline picks the equipment records belonging to a
// discipline so that their summed cost approximates the discipline's
// equipment budget. Matching broadens in three stages: discipline-specific
// records, then project-wide records, then everything as a last resort.
// A residual mismatch is a warning, never a failure.
func MatchEquipmentToDiscipline(disciplineName string, targetValue float64, items []EquipmentDetail, aliases map[string]string) ([]EquipmentDetail, []string) {
	var warnings []string

	specific := filterEquipment(items, func(e EquipmentDetail) bool {
		return equipmentSourceMatches(e, disciplineName, aliases)
	})

	matched := specific
	if !sumWithinEpsilon(matched, targetValue) {
		broadened := filterEquipment(items, func(e EquipmentDetail) bool {
			return equipmentSourceMatches(e, disciplineName, aliases) || isProjectWideEquipment(e)
		})
		matched = broadened
	}

	if !sumWithinEpsilon(matched, targetValue) && len(specific) == 0 {
		matched = items
	}

	if diff := math.Abs(sumEquipment(matched) - targetValue); diff > equipmentMatchEpsilon {
		warnings = append(warnings, fmt.Sprintf(
			"discipline %q: equipment detail sum %.2f differs from budget value %.2f by %.2f",
			disciplineName, sumEquipment(matched), targetValue, diff))
	}

	return matched, warnings
}

func equipmentSourceMatches(e EquipmentDetail, disciplineName string, aliases map[string]string) bool {
	source := strings.TrimSpace(e.SourceDiscipline)
	if source == "" {
		return false
	}
	if mapped, ok := aliases[strings.ToUpper(source)]; ok {
		source = mapped
	}
	return strings.EqualFold(source, disciplineName)
}

func isProjectWideEquipment(e EquipmentDetail) bool {
	source := strings.ToUpper(strings.TrimSpace(e.SourceDiscipline))
	return source == "" || source == "GENERAL"
}

func filterEquipment(items []EquipmentDetail, keep func(EquipmentDetail) bool) []EquipmentDetail {
	var out []EquipmentDetail
	for _, e := range items {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func sumEquipment(items []EquipmentDetail) float64 {
	var sum float64
	for _, e := range items {
		sum += e.TotalCost
	}
	return sum
}

func sumWithinEpsilon(items []EquipmentDetail, target float64) bool {
	return math.Abs(sumEquipment(items)-target) <= equipmentMatchEpsilon
}
