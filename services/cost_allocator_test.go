package services

import (
	"math"
	"testing"

	"backend/models"
)

func testDiscipline(categories map[string]CategoryFigures) BudgetSheetDiscipline {
	return BudgetSheetDiscipline{
		Number:     "1",
		Name:       "Piping",
		Categories: categories,
	}
}

func itemFor(t *testing.T, items []models.BudgetLineItem, costType string) models.BudgetLineItem {
	t.Helper()
	for _, li := range items {
		if li.CostType == costType {
			return li
		}
	}
	t.Fatalf("no line item with cost type %q", costType)
	return models.BudgetLineItem{}
}

func TestAllocateDisciplineLaborSplit(t *testing.T) {
	d := testDiscipline(map[string]CategoryFigures{
		"DIRECT LABOR":      {Value: 800, Manhours: 16},
		"INDIRECT LABOR":    {Value: 200, Manhours: 4},
		"TAXES & INSURANCE": {Value: 100},
		"PERDIEM":           {Value: 50},
	})

	items := AllocateDiscipline(d, 1, "batch-1", "BUDGETS")
	if len(items) != 2 {
		t.Fatalf("got %d line items, want 2", len(items))
	}

	direct := itemFor(t, items, "Direct Labor")
	indirect := itemFor(t, items, "Indirect Labor")

	// 150 of add-ons split 80/20 with the labor base.
	if !almostEqual(direct.TotalCost, 920) {
		t.Errorf("direct total = %v, want 920", direct.TotalCost)
	}
	if !almostEqual(indirect.TotalCost, 230) {
		t.Errorf("indirect total = %v, want 230", indirect.TotalCost)
	}
	if !almostEqual(direct.LaborDirect, direct.TotalCost) {
		t.Errorf("direct bucket = %v, want %v", direct.LaborDirect, direct.TotalCost)
	}
	if direct.Manhours == nil || !almostEqual(*direct.Manhours, 16) {
		t.Errorf("direct manhours = %v, want 16", direct.Manhours)
	}
	if direct.Rate == nil || !almostEqual(*direct.Rate, 57.5) {
		t.Errorf("direct rate = %v, want 57.50", direct.Rate)
	}
}

func TestAllocateDisciplineAddOnsAndScaffolding(t *testing.T) {
	d := testDiscipline(map[string]CategoryFigures{
		"INDIRECT LABOR": {Value: 300},
		"SUBCONTRACTS":   {Value: 1000},
		"ADD ONS":        {Value: 70},
		"SCAFFOLDING":    {Value: 250},
	})

	items := AllocateDiscipline(d, 1, "batch-1", "BUDGETS")

	indirect := itemFor(t, items, "Indirect Labor")
	if !almostEqual(indirect.TotalCost, 370) {
		t.Errorf("indirect total = %v, want 370 (add ons land on indirect)", indirect.TotalCost)
	}
	subs := itemFor(t, items, "Subcontracts")
	if !almostEqual(subs.TotalCost, 1250) {
		t.Errorf("subcontracts total = %v, want 1250 (scaffolding lands on subs)", subs.TotalCost)
	}
}

func TestAllocateDisciplineRiskSpread(t *testing.T) {
	d := testDiscipline(map[string]CategoryFigures{
		"DIRECT LABOR":   {Value: 500},
		"INDIRECT LABOR": {Value: 300},
		"MATERIALS":      {Value: 200},
		"RISK":           {Value: 100},
	})

	items := AllocateDiscipline(d, 1, "batch-1", "BUDGETS")

	if got := itemFor(t, items, "Direct Labor").TotalCost; !almostEqual(got, 550) {
		t.Errorf("direct = %v, want 550", got)
	}
	if got := itemFor(t, items, "Indirect Labor").TotalCost; !almostEqual(got, 330) {
		t.Errorf("indirect = %v, want 330", got)
	}
	if got := itemFor(t, items, "Materials").TotalCost; !almostEqual(got, 220) {
		t.Errorf("materials = %v, want 220", got)
	}
}

func TestAllocateDisciplineSkipsTaxesWhenNoLaborBase(t *testing.T) {
	d := testDiscipline(map[string]CategoryFigures{
		"MATERIALS":         {Value: 1000},
		"TAXES & INSURANCE": {Value: 100},
		"PERDIEM":           {Value: 50},
	})

	items := AllocateDiscipline(d, 1, "batch-1", "BUDGETS")
	if len(items) != 1 {
		t.Fatalf("got %d line items, want only materials", len(items))
	}
	if !almostEqual(items[0].TotalCost, 1000) {
		t.Errorf("materials = %v, want 1000 untouched", items[0].TotalCost)
	}
}

func TestAllocateDisciplineEmitsOnlyPositive(t *testing.T) {
	d := testDiscipline(map[string]CategoryFigures{
		"DIRECT LABOR": {Value: 800},
		"EQUIPMENT":    {Value: 0},
	})

	items := AllocateDiscipline(d, 1, "batch-1", "BUDGETS")
	if len(items) != 1 {
		t.Fatalf("got %d line items, want 1", len(items))
	}
	if items[0].CostType != "Direct Labor" {
		t.Errorf("emitted %q, want Direct Labor only", items[0].CostType)
	}
}

// The allocator moves money between categories but never creates or destroys
// it: emitted totals must sum to base plus add-ons.
func TestAllocateDisciplinePreservesTotal(t *testing.T) {
	d := testDiscipline(map[string]CategoryFigures{
		"DIRECT LABOR":              {Value: 459000},
		"INDIRECT LABOR":            {Value: 90000},
		"MATERIALS":                 {Value: 220000},
		"EQUIPMENT":                 {Value: 85000},
		"SUBCONTRACTS":              {Value: 140000},
		"SMALL TOOLS & CONSUMABLES": {Value: 27450},
		"TAXES & INSURANCE":         {Value: 54900},
		"PERDIEM":                   {Value: 33000},
		"ADD ONS":                   {Value: 12000},
		"RISK":                      {Value: 56000},
	})

	items := AllocateDiscipline(d, 1, "batch-1", "BUDGETS")

	var emitted float64
	for _, li := range items {
		emitted += li.TotalCost
		bucketSum := li.LaborDirect + li.LaborIndirect + li.LaborStaff +
			li.Materials + li.Equipment + li.Subcontracts + li.SmallTools
		if !almostEqual(bucketSum, li.TotalCost) {
			t.Errorf("%s: bucket sum %v != total %v", li.CostType, bucketSum, li.TotalCost)
		}
	}

	want := DisciplineAllocatedTotal(d)
	if math.Abs(emitted-want) > 1e-6 {
		t.Errorf("emitted sum = %v, want %v", emitted, want)
	}
}
