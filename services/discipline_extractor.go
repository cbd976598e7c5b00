package services

import (
	"fmt"
	"strings"
)

// The BUDGETS sheet lays every discipline out as a fixed 12-row block whose
// column D values must match this sequence exactly. A mismatch anywhere
// rejects the whole block; the scanner then advances a single row and
// retries.
var budgetCategorySequence = []string{
	"DIRECT LABOR",
	"INDIRECT LABOR",
	"ALL LABOR",
	"TAXES & INSURANCE",
	"PERDIEM",
	"ADD ONS",
	"SMALL TOOLS & CONSUMABLES",
	"MATERIALS",
	"EQUIPMENT",
	"SUBCONTRACTS",
	"RISK",
	"DISCIPLINE TOTALS",
}

// Fixed column positions inside a discipline block.
const (
	colDisciplineNumber = 0 // A
	colDisciplineName   = 1 // B
	colBlockSpacer      = 2 // C, must be empty on the header row
	colCategoryLabel    = 3 // D
	colManhours         = 4 // E
	colValue            = 5 // F
	colPercentage       = 6 // G
)

// CategoryFigures is one cost category row of a discipline block.
type CategoryFigures struct {
	Manhours   float64 `json:"manhours"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// BudgetSheetDiscipline is the intermediate extraction of one 12-row block.
// It is consumed by the cost allocator and never persisted directly.
type BudgetSheetDiscipline struct {
	Number      string                     `json:"number"`
	Name        string                     `json:"name"`
	StartRow    int                        `json:"start_row"`
	Categories  map[string]CategoryFigures `json:"categories"`
	TotalValue  float64                    `json:"total_value"`
	Manhours    float64                    `json:"manhours"`
	CostPerHour float64                    `json:"cost_per_hour"`
}

// Category is a nil-safe lookup into the discipline's category map.
func (d *BudgetSheetDiscipline) Category(label string) CategoryFigures {
	if d.Categories == nil {
		return CategoryFigures{}
	}
	return d.Categories[label]
}

// ExtractDisciplineBlocks walks a BUDGETS-style grid top to bottom and
// returns every validated discipline block in sheet order, plus diagnostics
// for blocks that looked like headers but failed sequence validation.
func ExtractDisciplineBlocks(grid [][]string) ([]BudgetSheetDiscipline, []string) {
	var disciplines []BudgetSheetDiscipline
	var diagnostics []string

	for row := 0; row < len(grid); {
		if !isDisciplineHeader(grid, row) {
			row++
			continue
		}

		if ok, reason := validateBlockSequence(grid, row); !ok {
			diagnostics = append(diagnostics, fmt.Sprintf("row %d: discipline block rejected: %s", row+1, reason))
			row++
			continue
		}

		disciplines = append(disciplines, extractBlock(grid, row))
		row += len(budgetCategorySequence)
	}

	return disciplines, diagnostics
}

// isDisciplineHeader matches the first row of a block: numeric discipline
// number in A, non-empty name in B, empty C, "DIRECT LABOR" in D.
func isDisciplineHeader(grid [][]string, row int) bool {
	r := grid[row]
	number := strings.TrimSpace(cellAt(r, colDisciplineNumber))
	if number == "" || !isNumericCell(number) {
		return false
	}
	if isBlankCell(cellAt(r, colDisciplineName)) {
		return false
	}
	if !isBlankCell(cellAt(r, colBlockSpacer)) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(cellAt(r, colCategoryLabel)), budgetCategorySequence[0])
}

// validateBlockSequence checks the 12 category labels in column D.
func validateBlockSequence(grid [][]string, start int) (bool, string) {
	if start+len(budgetCategorySequence) > len(grid) {
		return false, "sheet ends before block completes"
	}
	for i, want := range budgetCategorySequence {
		got := strings.ToUpper(strings.TrimSpace(cellAt(grid[start+i], colCategoryLabel)))
		if got != want {
			return false, fmt.Sprintf("expected %q at offset %d, found %q", want, i, got)
		}
	}
	return true, ""
}

func extractBlock(grid [][]string, start int) BudgetSheetDiscipline {
	header := grid[start]
	d := BudgetSheetDiscipline{
		Number:     strings.TrimSpace(cellAt(header, colDisciplineNumber)),
		Name:       strings.TrimSpace(cellAt(header, colDisciplineName)),
		StartRow:   start,
		Categories: make(map[string]CategoryFigures, len(budgetCategorySequence)-2),
	}

	for i, label := range budgetCategorySequence {
		r := grid[start+i]
		figures := CategoryFigures{
			Manhours:   ParseCellNumber(cellAt(r, colManhours)),
			Value:      ParseCellNumber(cellAt(r, colValue)),
			Percentage: ParseCellPercent(cellAt(r, colPercentage)),
		}

		switch label {
		case "DISCIPLINE TOTALS":
			d.TotalValue = figures.Value
		case "ALL LABOR":
			// derived row, recomputed below instead of stored
		default:
			d.Categories[label] = figures
		}
	}

	d.Manhours = d.Categories["DIRECT LABOR"].Manhours + d.Categories["INDIRECT LABOR"].Manhours
	d.CostPerHour = RoundCents(SafeDivide(d.TotalValue, d.Manhours))
	return d
}

func isNumericCell(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
