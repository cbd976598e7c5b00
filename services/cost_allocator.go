package services

import (
	"fmt"

	"backend/models"
)

// Base cost categories, in emission order. Add-on categories are distributed
// across these; the split rules are fixed business policy, not configuration.
var baseCostCategories = []string{
	"DIRECT LABOR",
	"INDIRECT LABOR",
	"MATERIALS",
	"EQUIPMENT",
	"SUBCONTRACTS",
	"SMALL TOOLS & CONSUMABLES",
}

type categoryTarget struct {
	category    string // LABOR / NON_LABOR
	subcategory string
	costType    string
	bucket      func(*models.BudgetLineItem, float64)
}

var allocationTargets = map[string]categoryTarget{
	"DIRECT LABOR": {"LABOR", "DIRECT", "Direct Labor",
		func(li *models.BudgetLineItem, v float64) { li.LaborDirect = v }},
	"INDIRECT LABOR": {"LABOR", "INDIRECT", "Indirect Labor",
		func(li *models.BudgetLineItem, v float64) { li.LaborIndirect = v }},
	"MATERIALS": {"NON_LABOR", "MATERIALS", "Materials",
		func(li *models.BudgetLineItem, v float64) { li.Materials = v }},
	"EQUIPMENT": {"NON_LABOR", "EQUIPMENT", "Equipment",
		func(li *models.BudgetLineItem, v float64) { li.Equipment = v }},
	"SUBCONTRACTS": {"NON_LABOR", "SUBCONTRACTS", "Subcontracts",
		func(li *models.BudgetLineItem, v float64) { li.Subcontracts = v }},
	"SMALL TOOLS & CONSUMABLES": {"NON_LABOR", "SMALL_TOOLS", "Small Tools & Consumables",
		func(li *models.BudgetLineItem, v float64) { li.SmallTools = v }},
}

// AllocateDiscipline distributes a discipline's add-on categories across its
// base categories and emits one line item per non-zero final category:
//
//   - taxes & insurance and per diem split between direct and indirect labor
//     in proportion to their base values (skipped when base labor is zero)
//   - add ons land entirely on indirect labor
//   - scaffolding lands entirely on subcontracts
//   - risk spreads across all six base categories by their share of the
//     combined base total
//
// The sum of emitted line item totals equals the discipline's pre-allocation
// total (base plus add-ons) up to floating point noise.
func AllocateDiscipline(d BudgetSheetDiscipline, projectID int, batchID, sourceSheet string) []models.BudgetLineItem {
	base := make(map[string]float64, len(baseCostCategories))
	for _, cat := range baseCostCategories {
		base[cat] = d.Category(cat).Value
	}

	final := make(map[string]float64, len(baseCostCategories))
	for cat, v := range base {
		final[cat] = v
	}

	directBase := base["DIRECT LABOR"]
	indirectBase := base["INDIRECT LABOR"]
	laborBase := directBase + indirectBase

	// Taxes & insurance and per diem follow labor.
	for _, addOn := range []string{"TAXES & INSURANCE", "PERDIEM"} {
		amount := d.Category(addOn).Value
		if amount == 0 || laborBase == 0 {
			continue
		}
		final["DIRECT LABOR"] += amount * directBase / laborBase
		final["INDIRECT LABOR"] += amount * indirectBase / laborBase
	}

	final["INDIRECT LABOR"] += d.Category("ADD ONS").Value
	final["SUBCONTRACTS"] += d.Category("SCAFFOLDING").Value

	// Risk spreads across everything.
	if risk := d.Category("RISK").Value; risk != 0 {
		var combined float64
		for _, cat := range baseCostCategories {
			combined += base[cat]
		}
		if combined != 0 {
			for _, cat := range baseCostCategories {
				final[cat] += risk * base[cat] / combined
			}
		}
	}

	var items []models.BudgetLineItem
	for _, cat := range baseCostCategories {
		amount := final[cat]
		if amount <= 0 {
			continue
		}
		target := allocationTargets[cat]
		li := models.BudgetLineItem{
			ProjectID:     projectID,
			ImportBatchID: batchID,
			SourceSheet:   sourceSheet,
			SourceRow:     d.StartRow + 1,
			Discipline:    d.Name,
			Category:      target.category,
			Subcategory:   target.subcategory,
			CostType:      target.costType,
			Description:   fmt.Sprintf("%s - %s", d.Name, target.costType),
		}
		target.bucket(&li, amount)
		li.TotalCost = amount

		if hours := d.Category(cat).Manhours; hours > 0 {
			h := hours
			li.Manhours = &h
			if amount > 0 {
				rate := RoundCents(amount / hours)
				li.Rate = &rate
			}
		}
		items = append(items, li)
	}

	return items
}

// DisciplineAllocatedTotal is the discipline's full pre-allocation value:
// base categories plus every add-on. The allocator preserves this total.
func DisciplineAllocatedTotal(d BudgetSheetDiscipline) float64 {
	var total float64
	for _, cat := range baseCostCategories {
		total += d.Category(cat).Value
	}
	for _, addOn := range []string{"TAXES & INSURANCE", "PERDIEM", "ADD ONS", "SCAFFOLDING", "RISK"} {
		total += d.Category(addOn).Value
	}
	return total
}
