package services

import "testing"

// disciplineBlock builds the canonical 12-row block the BUDGETS sheet uses.
func disciplineBlock(number, name string, rows [12][3]string) [][]string {
	var out [][]string
	for i, label := range budgetCategorySequence {
		row := []string{"", "", "", label, rows[i][0], rows[i][1], rows[i][2]}
		if i == 0 {
			row[0] = number
			row[1] = name
		}
		out = append(out, row)
	}
	return out
}

func pipingBlock() [][]string {
	return disciplineBlock("1", "PIPING", [12][3]string{
		{"5400", "459000", ""},   // DIRECT LABOR
		{"1200", "90000", ""},    // INDIRECT LABOR
		{"6600", "549000", ""},   // ALL LABOR
		{"", "54900", "10%"},     // TAXES & INSURANCE
		{"", "33000", ""},        // PERDIEM
		{"", "12000", ""},        // ADD ONS
		{"", "27450", "5%"},      // SMALL TOOLS & CONSUMABLES
		{"", "220000", ""},       // MATERIALS
		{"", "85000", ""},        // EQUIPMENT
		{"", "140000", ""},       // SUBCONTRACTS
		{"", "56000", ""},        // RISK
		{"6600", "1087350", ""},  // DISCIPLINE TOTALS
	})
}

func TestExtractDisciplineBlocks(t *testing.T) {
	grid := [][]string{
		{"PROJECT BUDGET SUMMARY"},
		{},
	}
	grid = append(grid, pipingBlock()...)

	disciplines, diagnostics := ExtractDisciplineBlocks(grid)
	if len(diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagnostics)
	}
	if len(disciplines) != 1 {
		t.Fatalf("got %d disciplines, want 1", len(disciplines))
	}

	d := disciplines[0]
	if d.Number != "1" || d.Name != "PIPING" {
		t.Errorf("header = %q/%q, want 1/PIPING", d.Number, d.Name)
	}
	if !almostEqual(d.TotalValue, 1087350) {
		t.Errorf("TotalValue = %v, want 1087350", d.TotalValue)
	}
	if !almostEqual(d.Manhours, 6600) {
		t.Errorf("Manhours = %v, want 6600 (direct + indirect)", d.Manhours)
	}
	if _, ok := d.Categories["ALL LABOR"]; ok {
		t.Error("ALL LABOR should not be stored in the category map")
	}
	if _, ok := d.Categories["DISCIPLINE TOTALS"]; ok {
		t.Error("DISCIPLINE TOTALS should not be stored in the category map")
	}
	if got := d.Category("TAXES & INSURANCE"); !almostEqual(got.Value, 54900) || !almostEqual(got.Percentage, 0.10) {
		t.Errorf("TAXES & INSURANCE = %+v, want value 54900 pct 0.10", got)
	}
	if got := d.Category("MATERIALS").Value; !almostEqual(got, 220000) {
		t.Errorf("MATERIALS value = %v, want 220000", got)
	}
}

func TestExtractDisciplineBlocksRejectsBrokenSequence(t *testing.T) {
	block := pipingBlock()
	block[7][3] = "MATERIAL" // breaks the fixed sequence

	disciplines, diagnostics := ExtractDisciplineBlocks(block)
	if len(disciplines) != 0 {
		t.Fatalf("got %d disciplines from a broken block, want 0", len(disciplines))
	}
	if len(diagnostics) == 0 {
		t.Error("expected a diagnostic for the rejected block")
	}
}

func TestExtractDisciplineBlocksSkipOneRowRetry(t *testing.T) {
	// A decoy header row directly above a valid block: the scanner must
	// reject the decoy, advance one row, and still find the real block.
	decoy := []string{"9", "DECOY", "", "DIRECT LABOR", "", "", ""}
	grid := [][]string{decoy}
	grid = append(grid, pipingBlock()...)

	disciplines, diagnostics := ExtractDisciplineBlocks(grid)
	if len(disciplines) != 1 {
		t.Fatalf("got %d disciplines, want 1", len(disciplines))
	}
	if disciplines[0].Name != "PIPING" {
		t.Errorf("extracted %q, want PIPING", disciplines[0].Name)
	}
	if len(diagnostics) != 1 {
		t.Errorf("diagnostics = %v, want exactly one for the decoy", diagnostics)
	}
}

func TestExtractDisciplineBlocksMultiple(t *testing.T) {
	grid := pipingBlock()
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

	disciplines, _ := ExtractDisciplineBlocks(grid)
	if len(disciplines) != 2 {
		t.Fatalf("got %d disciplines, want 2", len(disciplines))
	}
	if disciplines[0].Name != "PIPING" || disciplines[1].Name != "ELECTRICAL" {
		t.Errorf("order = %q, %q; want PIPING, ELECTRICAL", disciplines[0].Name, disciplines[1].Name)
	}
	if !almostEqual(disciplines[1].Manhours, 2500) {
		t.Errorf("ELECTRICAL manhours = %v, want 2500", disciplines[1].Manhours)
	}
}

func TestIsNumericCell(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"12.5", true},
		{" 3 ", true},
		{"", false},
		{"PIPING", false},
		{"1A", false},
	}
	for _, tt := range tests {
		if got := isNumericCell(tt.in); got != tt.want {
			t.Errorf("isNumericCell(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
