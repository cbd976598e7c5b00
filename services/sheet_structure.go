package services

import (
	"fmt"
	"strings"
)

// Column roles the detector tries to locate on cost detail sheets.
var headerKeywords = map[string][]string{
	"wbs":         {"wbs", "code", "cost code"},
	"description": {"description", "desc", "item", "activity", "scope"},
	"quantity":    {"qty", "quantity", "count"},
	"unit":        {"unit", "uom", "um"},
	"rate":        {"rate", "price", "unit cost", "$/"},
	"hours":       {"hours", "hrs", "manhour", "mh"},
	"crew":        {"crew", "craft", "labor class"},
	"duration":    {"duration", "weeks", "days"},
	"total":       {"total", "amount", "cost", "value"},
}

// Role precedence for cells whose text matches more than one role.
var headerRoleOrder = []string{
	"wbs", "description", "quantity", "unit", "rate", "hours", "crew",
	"duration", "total",
}

// Keywords that terminate the data region of a sheet.
var totalRowKeywords = []string{"total", "grand"}

// How many rows from the top the detector is willing to scan for a header.
const headerScanLimit = 20

// Minimum number of distinct role matches a row needs to qualify as a header.
const headerMinMatches = 3

// SheetStructure describes where a detail sheet keeps its header and data.
// HeaderRow is -1 when no qualifying header row was found; callers treat that
// as "sheet unusable" and record a warning, not an error.
type SheetStructure struct {
	HeaderRow int            `json:"header_row"`
	Columns   map[string]int `json:"columns"`
	DataStart int            `json:"data_start"`
	DataEnd   int            `json:"data_end"`
}

// HasColumn reports whether a role was located.
func (s SheetStructure) HasColumn(role string) bool {
	_, ok := s.Columns[role]
	return ok
}

// DetectSheetStructure locates the header row and semantic column roles of an
// unstructured tabular sheet by keyword scoring. The first row within the
// scan limit matching at least three distinct roles wins.
func DetectSheetStructure(sheetName string, grid [][]string) (SheetStructure, []string) {
	structure := SheetStructure{HeaderRow: -1, Columns: map[string]int{}}
	var warnings []string

	limit := len(grid)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	for r := 0; r < limit; r++ {
		cols := matchHeaderRow(grid[r])
		if len(cols) >= headerMinMatches {
			structure.HeaderRow = r
			structure.Columns = cols
			break
		}
	}

	if structure.HeaderRow == -1 {
		warnings = append(warnings, fmt.Sprintf("sheet %q: no header detected", sheetName))
		return structure, warnings
	}

	// Data starts at the first non-blank row after the header.
	structure.DataStart = -1
	for r := structure.HeaderRow + 1; r < len(grid); r++ {
		if !rowIsBlank(grid[r]) {
			structure.DataStart = r
			break
		}
	}
	if structure.DataStart == -1 {
		warnings = append(warnings, fmt.Sprintf("sheet %q: header found but no data rows", sheetName))
		structure.DataStart = len(grid)
		structure.DataEnd = len(grid)
		return structure, warnings
	}

	// Data ends just before a total/grand row, or at the last row.
	structure.DataEnd = len(grid)
	for r := structure.DataStart; r < len(grid); r++ {
		if rowIsTotal(grid[r]) {
			structure.DataEnd = r
			break
		}
	}

	return structure, warnings
}

func matchHeaderRow(row []string) map[string]int {
	cols := map[string]int{}
	for c, cell := range row {
		lower := strings.ToLower(strings.TrimSpace(cell))
		if lower == "" {
			continue
		}
		for _, role := range headerRoleOrder {
			if _, taken := cols[role]; taken {
				continue
			}
			for _, kw := range headerKeywords[role] {
				if strings.Contains(lower, kw) {
					cols[role] = c
					break
				}
			}
		}
	}
	return cols
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if !isBlankCell(cell) {
			return false
		}
	}
	return true
}

func rowIsTotal(row []string) bool {
	for _, cell := range row {
		lower := strings.ToLower(cell)
		for _, kw := range totalRowKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
