package services

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeGrid(t *testing.T, f *excelize.File, sheet string, grid [][]string) {
	t.Helper()
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("NewSheet(%s): %v", sheet, err)
	}
	for r, row := range grid {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
}

func TestImportWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	writeGrid(t, f, sheetBudgets, pipingBlock())
	writeGrid(t, f, "MATERIALS", [][]string{
		{"Description", "Qty", "Unit", "Rate", "Total"},
		{"6\" CS pipe", "1200", "LF", "42.50", "51000"},
		{"Gate valves", "36", "EA", "850", "30600"},
		{"Grand Total", "", "", "", "81600"},
	})

	importer := NewBudgetImporter(nil, nil)
	result, err := importer.ImportWorkbook(f, 1)
	if err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}

	if result.BatchID == "" {
		t.Error("missing batch id")
	}
	if len(result.Report.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Report.Errors)
	}
	if len(result.Disciplines) != 1 {
		t.Fatalf("got %d disciplines, want 1", len(result.Disciplines))
	}
	if result.Disciplines[0].Name != "Piping" {
		t.Errorf("discipline name = %q, want title-cased Piping", result.Disciplines[0].Name)
	}

	var allocated float64
	for _, li := range result.LineItems {
		if li.ImportBatchID != result.BatchID {
			t.Errorf("line item batch = %q, want %q", li.ImportBatchID, result.BatchID)
		}
		allocated += li.TotalCost
	}
	want := DisciplineAllocatedTotal(result.Disciplines[0])
	if !almostEqual(allocated, want) {
		t.Errorf("allocated total = %v, want %v", allocated, want)
	}

	if len(result.DetailItems) != 2 {
		t.Fatalf("got %d detail items, want 2", len(result.DetailItems))
	}
	if result.DetailItems[0].CostType != "Materials" {
		t.Errorf("detail cost type = %q, want Materials", result.DetailItems[0].CostType)
	}
	if !almostEqual(result.DetailItems[0].Materials, 51000) {
		t.Errorf("detail bucket = %v, want 51000", result.DetailItems[0].Materials)
	}

	if len(result.Tree) == 0 {
		t.Fatal("missing WBS tree")
	}
	if !almostEqual(result.Tree[0].BudgetTotal, allocated) {
		t.Errorf("tree total = %v, want %v", result.Tree[0].BudgetTotal, allocated)
	}
}

func TestImportWorkbookMissingBudgets(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	importer := NewBudgetImporter(nil, nil)
	result, err := importer.ImportWorkbook(f, 1)
	if err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}
	if len(result.Report.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one for the missing sheet", result.Report.Errors)
	}
}

func TestImportWorkbookUnmappedSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	writeGrid(t, f, sheetBudgets, pipingBlock())
	writeGrid(t, f, "SUBS", [][]string{
		{"Description", "Qty", "Total"},
		{"Scaffold erect/dismantle", "1", "140000"},
	})

	importer := NewBudgetImporter(SheetMappingConfig{}, nil)
	result, err := importer.ImportWorkbook(f, 1)
	if err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}
	if len(result.Report.Errors) != 1 {
		t.Fatalf("errors = %v, want one for the unmapped sheet", result.Report.Errors)
	}
	if len(result.DetailItems) != 0 {
		t.Errorf("got %d detail items from an unmapped sheet, want 0", len(result.DetailItems))
	}
}

func TestImportWorkbookEquipmentDetail(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	grid := pipingBlock() // EQUIPMENT budget 85000
	grid = append(grid, []string{})
	grid = append(grid, disciplineBlock("2", "ELECTRICAL", [12][3]string{
		{"2000", "150000", ""},
		{"500", "40000", ""},
		{"2500", "190000", ""},
		{"", "19000", ""},
		{"", "0", ""},
		{"", "0", ""},
		{"", "9500", ""},
		{"", "80000", ""},
		{"", "30000", ""},
		{"", "0", ""},
		{"", "0", ""},
		{"2500", "328500", ""},
	})...)
	writeGrid(t, f, sheetBudgets, grid)
	writeGrid(t, f, sheetGeneralEquipment, [][]string{
		{"Used", "Discipline", "Type", "Description"},
		{"X", "Piping", "Crane", "Crane 60T", "1", "12", "weeks", "Y", "", "", "", "", "", "", "4000", "48000", "3600", "2400", "54000"},
		{"X", "", "Lighting", "Light towers", "4", "20", "weeks", "N", "", "", "", "", "", "", "250", "31000", "", "", ""},
	})

	importer := NewBudgetImporter(nil, nil)
	result, err := importer.ImportWorkbook(f, 1)
	if err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}
	if len(result.Report.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Report.Errors)
	}

	byDescription := make(map[string][]int)
	for i, li := range result.DetailItems {
		if li.SourceSheet != sheetGeneralEquipment {
			t.Errorf("detail item %d from sheet %q, want %s", i, li.SourceSheet, sheetGeneralEquipment)
		}
		byDescription[li.Description] = append(byDescription[li.Description], i)
	}
	if len(result.DetailItems) != 2 {
		t.Fatalf("got %d detail items, want the 2 assigned equipment rows", len(result.DetailItems))
	}

	crane := result.DetailItems[byDescription["Crane 60T"][0]]
	if crane.Discipline != "Piping" || crane.Subcategory != "EQUIPMENT" {
		t.Errorf("crane = %q/%q, want Piping/EQUIPMENT", crane.Discipline, crane.Subcategory)
	}
	if !almostEqual(crane.Equipment, 54000) || !almostEqual(crane.TotalCost, 54000) {
		t.Errorf("crane cost = %v/%v, want 54000 in the equipment bucket", crane.Equipment, crane.TotalCost)
	}
	if crane.Rate == nil || !almostEqual(*crane.Rate, 4000) {
		t.Errorf("crane rate = %v, want 4000", crane.Rate)
	}

	// The project-wide towers row also satisfies Electrical's broadened
	// match, but it is only charged once, to the discipline seen first.
	towers := byDescription["Light towers"]
	if len(towers) != 1 {
		t.Fatalf("towers emitted %d times, want once", len(towers))
	}
	if got := result.DetailItems[towers[0]].Discipline; got != "Piping" {
		t.Errorf("towers discipline = %q, want Piping", got)
	}
}

func TestParseGeneralEquipment(t *testing.T) {
	grid := [][]string{
		{"Used", "Discipline", "Type", "Description"},
		{"X", "Piping", "Crane", "Crane 60T", "1", "12", "weeks", "Y", "", "", "", "", "", "", "4000", "48000", "3600", "2400", "54000"},
		{"", "Piping", "Crane", "Crane 90T", "1", "12", "weeks", "Y", "", "", "", "", "", "", "6000", "72000", "", "", "80000"},
		{"X", "", "Lighting", "Light towers", "4", "20", "weeks", "N", "", "", "", "", "", "", "250", "20000", "", "", ""},
	}

	items := ParseGeneralEquipment(grid)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (unused and header rows skipped)", len(items))
	}

	crane := items[0]
	if crane.Description != "Crane 60T" || crane.SourceDiscipline != "Piping" {
		t.Errorf("crane = %+v", crane)
	}
	if !crane.Fueled {
		t.Error("crane should be fueled")
	}
	if !almostEqual(crane.TotalCost, 54000) {
		t.Errorf("crane total = %v, want 54000", crane.TotalCost)
	}

	// Missing total falls back to the component sum.
	towers := items[1]
	if !almostEqual(towers.TotalCost, 20000) {
		t.Errorf("towers total = %v, want equipment cost fallback 20000", towers.TotalCost)
	}
	if towers.SourceDiscipline != "" {
		t.Errorf("towers discipline = %q, want project-wide", towers.SourceDiscipline)
	}
}
