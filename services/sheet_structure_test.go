package services

import "testing"

func TestDetectSheetStructure(t *testing.T) {
	grid := [][]string{
		{"MATERIALS ESTIMATE", "", ""},
		{"", "", ""},
		{"WBS Code", "Description", "Qty", "Unit", "Unit Price", "Total Cost"},
		{"", "", "", "", "", ""},
		{"01-100", "6\" CS pipe", "1200", "LF", "42.50", "51000"},
		{"01-200", "Gate valves", "36", "EA", "850", "30600"},
		{"", "Grand Total", "", "", "", "81600"},
	}

	structure, warnings := DetectSheetStructure("MATERIALS", grid)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if structure.HeaderRow != 2 {
		t.Fatalf("HeaderRow = %d, want 2", structure.HeaderRow)
	}
	if structure.DataStart != 4 {
		t.Errorf("DataStart = %d, want 4", structure.DataStart)
	}
	if structure.DataEnd != 6 {
		t.Errorf("DataEnd = %d, want 6", structure.DataEnd)
	}

	wantCols := map[string]int{
		"wbs":         0,
		"description": 1,
		"quantity":    2,
		"unit":        3,
		"rate":        4,
		"total":       5,
	}
	for role, col := range wantCols {
		got, ok := structure.Columns[role]
		if !ok || got != col {
			t.Errorf("Columns[%q] = %d (found=%v), want %d", role, got, ok, col)
		}
	}
}

func TestDetectSheetStructureNoHeader(t *testing.T) {
	grid := [][]string{
		{"some notes", ""},
		{"more notes", ""},
		{"1200", "51000"},
	}

	structure, warnings := DetectSheetStructure("NOTES", grid)
	if structure.HeaderRow != -1 {
		t.Fatalf("HeaderRow = %d, want -1", structure.HeaderRow)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
}

func TestDetectSheetStructureHeaderBeyondScanLimit(t *testing.T) {
	grid := make([][]string, 0, headerScanLimit+3)
	for i := 0; i < headerScanLimit; i++ {
		grid = append(grid, []string{"filler", ""})
	}
	grid = append(grid, []string{"Description", "Qty", "Total"})
	grid = append(grid, []string{"pipe", "10", "100"})

	structure, _ := DetectSheetStructure("DEEP", grid)
	if structure.HeaderRow != -1 {
		t.Errorf("HeaderRow = %d, want -1 for header past scan limit", structure.HeaderRow)
	}
}

func TestDetectSheetStructureHeaderButNoData(t *testing.T) {
	grid := [][]string{
		{"Description", "Qty", "Total"},
		{"", "", ""},
	}

	structure, warnings := DetectSheetStructure("EMPTY", grid)
	if structure.HeaderRow != 0 {
		t.Fatalf("HeaderRow = %d, want 0", structure.HeaderRow)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", warnings)
	}
	if structure.DataStart != structure.DataEnd {
		t.Errorf("data region %d..%d, want empty", structure.DataStart, structure.DataEnd)
	}
}
