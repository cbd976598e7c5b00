package services

import (
	"testing"

	"backend/models"
)

func TestBuildWBSFromGroups(t *testing.T) {
	disciplines := []DisciplineTotals{
		{Name: "Piping", BudgetTotal: 1000000, Manhours: 6600, MaterialCost: 220000},
		{Name: "Equipment", BudgetTotal: 400000, Manhours: 1200},
		{Name: "Electrical", BudgetTotal: 300000, Manhours: 2500},
		{Name: "Fireproofing", BudgetTotal: 50000},
	}
	groups := map[string]string{
		"Piping":     "Mechanical",
		"Equipment":  "Mechanical",
		"Electrical": "E&I",
	}

	roots := BuildWBSFromGroups(disciplines, groups)
	if len(roots) != 3 {
		t.Fatalf("got %d groups, want 3 (E&I, Mechanical, Other)", len(roots))
	}

	// Groups sort by name, so codes are deterministic.
	if roots[0].Description != "E&I" || roots[0].Code != "01" {
		t.Errorf("roots[0] = %s/%s, want 01/E&I", roots[0].Code, roots[0].Description)
	}
	if roots[1].Description != "Mechanical" || roots[1].Code != "02" {
		t.Errorf("roots[1] = %s/%s, want 02/Mechanical", roots[1].Code, roots[1].Description)
	}
	if roots[2].Description != "Other" {
		t.Errorf("roots[2] = %s, want the Other fallback group", roots[2].Description)
	}

	mech := roots[1]
	if len(mech.Children) != 2 {
		t.Fatalf("Mechanical has %d children, want 2", len(mech.Children))
	}
	if mech.Children[0].Code != "02.1" || mech.Children[1].Code != "02.2" {
		t.Errorf("child codes = %s, %s; want 02.1, 02.2", mech.Children[0].Code, mech.Children[1].Code)
	}
	if !almostEqual(mech.BudgetTotal, 1400000) {
		t.Errorf("Mechanical rollup = %v, want 1400000", mech.BudgetTotal)
	}
	if !almostEqual(mech.ManhoursTotal, 7800) {
		t.Errorf("Mechanical manhours = %v, want 7800", mech.ManhoursTotal)
	}
	if !almostEqual(mech.MaterialCost, 220000) {
		t.Errorf("Mechanical material = %v, want 220000", mech.MaterialCost)
	}

	child := mech.Children[0]
	if child.ParentCode == nil || *child.ParentCode != "02" {
		t.Errorf("child parent code = %v, want 02", child.ParentCode)
	}
	if child.Level != 2 {
		t.Errorf("child level = %d, want 2", child.Level)
	}
}

func TestBuildWBSFromGroupsCaseInsensitive(t *testing.T) {
	disciplines := []DisciplineTotals{{Name: "PIPING", BudgetTotal: 100}}
	groups := map[string]string{"Piping": "Mechanical"}

	roots := BuildWBSFromGroups(disciplines, groups)
	if len(roots) != 1 || roots[0].Description != "Mechanical" {
		t.Fatalf("case-insensitive lookup failed: %+v", roots)
	}
}

func wbsCode(s string) *string { return &s }

func TestBuildWBSFromCodes(t *testing.T) {
	items := []models.BudgetLineItem{
		{WBSCode: wbsCode("01-100"), Discipline: "Piping", TotalCost: 500, Materials: 500},
		{WBSCode: wbsCode("01-100"), Discipline: "Piping", TotalCost: 300},
		{WBSCode: wbsCode("01-200"), Discipline: "Equipment", TotalCost: 200},
		{WBSCode: wbsCode("02"), Discipline: "Electrical", TotalCost: 400},
		{WBSCode: nil, TotalCost: 999}, // no code, excluded from the tree
	}

	roots := BuildWBSFromCodes(items)
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}

	root01 := roots[0]
	if root01.Code != "01" {
		t.Fatalf("roots[0].Code = %s, want 01", root01.Code)
	}
	if !almostEqual(root01.BudgetTotal, 1000) {
		t.Errorf("01 rollup = %v, want 1000", root01.BudgetTotal)
	}
	if len(root01.Children) != 2 {
		t.Fatalf("01 has %d children, want 2", len(root01.Children))
	}
	if root01.Children[0].Code != "01.100" {
		t.Errorf("first child = %s, want 01.100", root01.Children[0].Code)
	}
	if !almostEqual(root01.Children[0].BudgetTotal, 800) {
		t.Errorf("01.100 total = %v, want 800 (two items summed)", root01.Children[0].BudgetTotal)
	}
	if !almostEqual(root01.MaterialCost, 500) {
		t.Errorf("01 material rollup = %v, want 500", root01.MaterialCost)
	}

	if roots[1].Code != "02" || !almostEqual(roots[1].BudgetTotal, 400) {
		t.Errorf("roots[1] = %s/%v, want 02/400", roots[1].Code, roots[1].BudgetTotal)
	}
}

func TestBuildWBSFromCodesDeepCodeTruncated(t *testing.T) {
	items := []models.BudgetLineItem{
		{WBSCode: wbsCode("01-100-10-5"), TotalCost: 100},
	}

	roots := BuildWBSFromCodes(items)
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}

	node := roots[0]
	depth := 1
	for len(node.Children) > 0 {
		node = node.Children[0]
		depth++
	}
	if depth != 3 {
		t.Errorf("tree depth = %d, want codes capped at 3 levels", depth)
	}
	if node.Code != "01.100.10" {
		t.Errorf("leaf code = %s, want 01.100.10", node.Code)
	}
}

// Re-running the rollup must not change any total: totals derive from the
// directly-assigned amounts, not from previous rollup results.
func TestRollupWBSIdempotent(t *testing.T) {
	disciplines := []DisciplineTotals{
		{Name: "Piping", BudgetTotal: 1000, Manhours: 50},
		{Name: "Electrical", BudgetTotal: 500, Manhours: 25},
	}
	groups := map[string]string{"Piping": "Mechanical", "Electrical": "E&I"}

	roots := BuildWBSFromGroups(disciplines, groups)
	for _, root := range roots {
		before := root.BudgetTotal
		RollupWBS(root)
		RollupWBS(root)
		if !almostEqual(root.BudgetTotal, before) {
			t.Errorf("%s: rollup drifted from %v to %v", root.Code, before, root.BudgetTotal)
		}
	}
}
