package services

import (
	"fmt"
	"strings"

	"backend/models"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sheet names the importer understands. BUDGETS and GENERAL EQUIPMENT have
// fixed structures; the rest are detail sheets located by keyword scoring.
const (
	sheetBudgets          = "BUDGETS"
	sheetGeneralEquipment = "GENERAL EQUIPMENT"
)

var detailSheetAllowList = []string{
	"CONSTRUCTABILITY",
	"DISC. EQUIPMENT",
	"SCAFFOLDING",
	"SUBS",
	"MATERIALS",
	"STAFF",
	"INDIRECTS",
	"DIRECTS",
}

// SheetMapping tells the importer what cost classification a detail sheet's
// rows carry.
type SheetMapping struct {
	CostType    string `json:"cost_type"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// SheetMappingConfig maps sheet names to their cost classification. Injected
// into the importer so tests can supply fixed mappings; a detail sheet
// without a mapping is a validation error and gets skipped.
type SheetMappingConfig map[string]SheetMapping

// DefaultSheetMappings covers the standard estimating workbook layout.
var DefaultSheetMappings = SheetMappingConfig{
	"CONSTRUCTABILITY": {CostType: "Constructability", Category: "NON_LABOR", Subcategory: "SUBCONTRACTS"},
	"DISC. EQUIPMENT":  {CostType: "Discipline Equipment", Category: "NON_LABOR", Subcategory: "EQUIPMENT"},
	"SCAFFOLDING":      {CostType: "Scaffolding", Category: "NON_LABOR", Subcategory: "SUBCONTRACTS"},
	"SUBS":             {CostType: "Subcontracts", Category: "NON_LABOR", Subcategory: "SUBCONTRACTS"},
	"MATERIALS":        {CostType: "Materials", Category: "NON_LABOR", Subcategory: "MATERIALS"},
	"STAFF":            {CostType: "Staff Labor", Category: "LABOR", Subcategory: "STAFF"},
	"INDIRECTS":        {CostType: "Indirect Labor", Category: "LABOR", Subcategory: "INDIRECT"},
	"DIRECTS":          {CostType: "Direct Labor", Category: "LABOR", Subcategory: "DIRECT"},
}

// DefaultDisciplineGroups maps discipline names to their WBS discipline
// group.
var DefaultDisciplineGroups = map[string]string{
	"Piping":          "Mechanical",
	"Equipment":       "Mechanical",
	"Steel":           "Structural",
	"Structural":      "Structural",
	"Civil":           "Civil",
	"Concrete":        "Civil",
	"Earthwork":       "Civil",
	"Electrical":      "Electrical & Instrumentation",
	"Instrumentation": "Electrical & Instrumentation",
	"Insulation":      "Coatings & Insulation",
	"Painting":        "Coatings & Insulation",
	"Scaffolding":     "Indirects",
	"General":         "Indirects",
}

// ValidationReport accumulates import problems by severity. Errors mean a
// sheet was skipped for a configuration problem; warnings mean the importer
// degraded gracefully and kept going.
type ValidationReport struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationReport) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationReport) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// BudgetImportResult is everything one workbook import produces.
type BudgetImportResult struct {
	BatchID     string                  `json:"batch_id"`
	Disciplines []BudgetSheetDiscipline `json:"disciplines"`
	LineItems   []models.BudgetLineItem `json:"line_items"`
	DetailItems []models.BudgetLineItem `json:"detail_items"`
	Tree        []*models.WBSNode       `json:"wbs_tree"`
	Report      ValidationReport        `json:"report"`
}

// BudgetImporter parses an estimating workbook into allocated line items and
// a WBS tree. Mappings and discipline groups are injected at construction so
// behavior is deterministic under test.
type BudgetImporter struct {
	mappings SheetMappingConfig
	groups   map[string]string
	aliases  map[string]string
	titler   cases.Caser
}

// NewBudgetImporter builds an importer. Nil mappings or groups fall back to
// the defaults.
func NewBudgetImporter(mappings SheetMappingConfig, groups map[string]string) *BudgetImporter {
	if mappings == nil {
		mappings = DefaultSheetMappings
	}
	if groups == nil {
		groups = DefaultDisciplineGroups
	}
	aliases := make(map[string]string, len(groups))
	for name := range groups {
		aliases[strings.ToUpper(name)] = name
	}
	return &BudgetImporter{
		mappings: mappings,
		groups:   groups,
		aliases:  aliases,
		titler:   cases.Title(language.Und),
	}
}

// ImportWorkbook runs the full pipeline over an opened workbook.
func (bi *BudgetImporter) ImportWorkbook(f *excelize.File, projectID int) (*BudgetImportResult, error) {
	result := &BudgetImportResult{BatchID: uuid.New().String()}

	sheets := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		sheets[strings.ToUpper(strings.TrimSpace(name))] = true
	}

	if !sheets[sheetBudgets] {
		result.Report.errorf("workbook has no %s sheet", sheetBudgets)
		return result, nil
	}

	grid, err := f.GetRows(sheetBudgets)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", sheetBudgets, err)
	}

	disciplines, diagnostics := ExtractDisciplineBlocks(grid)
	for _, d := range diagnostics {
		result.Report.warnf("%s: %s", sheetBudgets, d)
	}
	if len(disciplines) == 0 {
		result.Report.errorf("%s sheet contains no valid discipline blocks", sheetBudgets)
		return result, nil
	}
	result.Disciplines = disciplines

	// Equipment detail, when present, is reconciled against each
	// discipline's equipment budget and the assigned rows surface as
	// EQUIPMENT detail items under that discipline.
	var equipment []EquipmentDetail
	if sheets[sheetGeneralEquipment] {
		eqGrid, err := f.GetRows(sheetGeneralEquipment)
		if err != nil {
			result.Report.warnf("failed to read %s sheet: %v", sheetGeneralEquipment, err)
		} else {
			equipment = ParseGeneralEquipment(eqGrid)
		}
	}
	assignedEquipment := make(map[int]bool)

	var groupTotals []DisciplineTotals
	for i := range result.Disciplines {
		d := &result.Disciplines[i]
		displayName := bi.titler.String(strings.ToLower(d.Name))
		d.Name = displayName

		if len(equipment) > 0 {
			target := d.Category("EQUIPMENT").Value
			if target > 0 {
				matched, warnings := MatchEquipmentToDiscipline(displayName, target, equipment, bi.aliases)
				for _, w := range warnings {
					result.Report.warnf("%s", w)
				}
				// Broadened matching can hand the same project-wide row
				// to more than one discipline; each row is charged once,
				// to the first discipline that claims it.
				for _, e := range matched {
					if assignedEquipment[e.SourceRow] {
						continue
					}
					assignedEquipment[e.SourceRow] = true
					result.DetailItems = append(result.DetailItems,
						equipmentDetailItem(e, displayName, projectID, result.BatchID))
				}
			}
		}

		items := AllocateDiscipline(*d, projectID, result.BatchID, sheetBudgets)
		result.LineItems = append(result.LineItems, items...)

		totals := DisciplineTotals{Name: displayName, Manhours: d.Manhours}
		for _, li := range items {
			totals.BudgetTotal += li.TotalCost
			totals.MaterialCost += li.Materials
		}
		groupTotals = append(groupTotals, totals)
	}

	// Detail sheets supplement the allocated totals; they never feed the WBS
	// rollup, so a double count is impossible.
	for _, name := range detailSheetAllowList {
		if !sheets[name] {
			continue
		}
		mapping, ok := bi.mappings[name]
		if !ok {
			result.Report.errorf("sheet %q has no mapping configured", name)
			continue
		}
		detailGrid, err := f.GetRows(name)
		if err != nil {
			result.Report.warnf("failed to read sheet %q: %v", name, err)
			continue
		}
		items, warnings := bi.parseDetailSheet(name, mapping, detailGrid, projectID, result.BatchID)
		result.Report.Warnings = append(result.Report.Warnings, warnings...)
		result.DetailItems = append(result.DetailItems, items...)
	}

	result.Tree = BuildWBSFromGroups(groupTotals, bi.groups)
	return result, nil
}

// parseDetailSheet extracts line items from a free-form detail sheet using
// keyword-located columns.
func (bi *BudgetImporter) parseDetailSheet(sheetName string, mapping SheetMapping, grid [][]string, projectID int, batchID string) ([]models.BudgetLineItem, []string) {
	structure, warnings := DetectSheetStructure(sheetName, grid)
	if structure.HeaderRow == -1 {
		return nil, warnings
	}
	if !structure.HasColumn("description") || !structure.HasColumn("total") {
		warnings = append(warnings, fmt.Sprintf("sheet %q: missing description or total column", sheetName))
		return nil, warnings
	}

	var items []models.BudgetLineItem
	for r := structure.DataStart; r < structure.DataEnd; r++ {
		row := grid[r]
		description := strings.TrimSpace(cellAt(row, structure.Columns["description"]))
		total := ParseCellNumber(cellAt(row, structure.Columns["total"]))
		if description == "" || total == 0 {
			continue
		}

		li := models.BudgetLineItem{
			ProjectID:     projectID,
			ImportBatchID: batchID,
			SourceSheet:   sheetName,
			SourceRow:     r + 1,
			Category:      mapping.Category,
			Subcategory:   mapping.Subcategory,
			CostType:      mapping.CostType,
			Description:   description,
			TotalCost:     total,
		}
		if col, ok := structure.Columns["quantity"]; ok {
			if qty := ParseCellNumber(cellAt(row, col)); qty != 0 {
				li.Quantity = &qty
			}
		}
		if col, ok := structure.Columns["unit"]; ok {
			if unit := strings.TrimSpace(cellAt(row, col)); unit != "" {
				li.Unit = &unit
			}
		}
		if col, ok := structure.Columns["rate"]; ok {
			if rate := ParseCellNumber(cellAt(row, col)); rate != 0 {
				li.Rate = &rate
			}
		}
		if col, ok := structure.Columns["hours"]; ok {
			if hours := ParseCellNumber(cellAt(row, col)); hours != 0 {
				li.Manhours = &hours
			}
		}
		if col, ok := structure.Columns["wbs"]; ok {
			if code := strings.TrimSpace(cellAt(row, col)); code != "" {
				li.WBSCode = &code
			}
		}

		setDetailBucket(&li, total)
		items = append(items, li)
	}
	return items, warnings
}

// setDetailBucket routes a detail item's total into the cost bucket matching
// its subcategory, keeping the bucket-sum invariant intact.
func setDetailBucket(li *models.BudgetLineItem, total float64) {
	switch li.Subcategory {
	case "DIRECT":
		li.LaborDirect = total
	case "INDIRECT":
		li.LaborIndirect = total
	case "STAFF":
		li.LaborStaff = total
	case "MATERIALS":
		li.Materials = total
	case "EQUIPMENT":
		li.Equipment = total
	case "SUBCONTRACTS":
		li.Subcontracts = total
	case "SMALL_TOOLS":
		li.SmallTools = total
	}
}

// equipmentDetailItem converts one assigned equipment record into an
// EQUIPMENT detail line item under its discipline.
func equipmentDetailItem(e EquipmentDetail, discipline string, projectID int, batchID string) models.BudgetLineItem {
	li := models.BudgetLineItem{
		ProjectID:     projectID,
		ImportBatchID: batchID,
		SourceSheet:   sheetGeneralEquipment,
		SourceRow:     e.SourceRow,
		Discipline:    discipline,
		Category:      "NON_LABOR",
		Subcategory:   "EQUIPMENT",
		CostType:      "General Equipment",
		Description:   e.Description,
		Equipment:     e.TotalCost,
		TotalCost:     e.TotalCost,
	}
	if e.Quantity != 0 {
		qty := e.Quantity
		li.Quantity = &qty
	}
	if e.RateUsed != 0 {
		rate := e.RateUsed
		li.Rate = &rate
	}
	return li
}

// GENERAL EQUIPMENT fixed column layout, A through S.
const (
	eqColUsed = iota
	eqColDiscipline
	eqColType
	eqColDescription
	eqColQuantity
	eqColDuration
	eqColDurationType
	eqColFueled
	eqColRateTier1
	eqColRateTier2
	eqColRateTier3
	eqColRateTier4
	eqColFOGMultiplier
	eqColMaintMultiplier
	eqColRateUsed
	eqColEquipmentCost
	eqColFOGCost
	eqColMaintenanceCost
	eqColTotalCost
)

// ParseGeneralEquipment reads the fixed-position GENERAL EQUIPMENT sheet.
// Rows not flagged as used are skipped; a missing total column falls back to
// the sum of the three cost components.
func ParseGeneralEquipment(grid [][]string) []EquipmentDetail {
	var items []EquipmentDetail
	for r, row := range grid {
		used := strings.ToUpper(strings.TrimSpace(cellAt(row, eqColUsed)))
		if used != "X" && used != "Y" && used != "YES" && used != "TRUE" && used != "1" {
			continue
		}
		description := strings.TrimSpace(cellAt(row, eqColDescription))
		if description == "" {
			continue
		}

		item := EquipmentDetail{
			SourceDiscipline: strings.TrimSpace(cellAt(row, eqColDiscipline)),
			EquipmentType:    strings.TrimSpace(cellAt(row, eqColType)),
			Description:      description,
			Quantity:         ParseCellNumber(cellAt(row, eqColQuantity)),
			Duration:         ParseCellNumber(cellAt(row, eqColDuration)),
			DurationType:     strings.TrimSpace(cellAt(row, eqColDurationType)),
			Fueled:           strings.EqualFold(strings.TrimSpace(cellAt(row, eqColFueled)), "Y"),
			RateUsed:         ParseCellNumber(cellAt(row, eqColRateUsed)),
			EquipmentCost:    ParseCellNumber(cellAt(row, eqColEquipmentCost)),
			FOGCost:          ParseCellNumber(cellAt(row, eqColFOGCost)),
			MaintenanceCost:  ParseCellNumber(cellAt(row, eqColMaintenanceCost)),
			TotalCost:        ParseCellNumber(cellAt(row, eqColTotalCost)),
			SourceRow:        r + 1,
		}
		if item.TotalCost == 0 {
			item.TotalCost = item.EquipmentCost + item.FOGCost + item.MaintenanceCost
		}
		items = append(items, item)
	}
	return items
}
