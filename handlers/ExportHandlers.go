package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// drawImageLabel renders one line of text onto an image. Bold face for field
// labels, regular for values.
func drawImageLabel(img *image.RGBA, x, y int, label string, bold bool) {
	face := inconsolata.Regular8x16
	if bold {
		face = inconsolata.Bold8x16
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}
	d.DrawString(label)
}

// ExportBudgetWorkbook writes the committed budget back out as an Excel
// workbook: one summary sheet per the allocated line items plus a WBS sheet.
// @Summary Export budget workbook
// @Description Download the committed budget line items and WBS tree as an Excel workbook
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Project ID"
// @Success 200 {file} file "Excel workbook"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/export/budget [get]
func ExportBudgetWorkbook(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var jobNumber string
		if err := db.QueryRow("SELECT job_number FROM project WHERE project_id = $1", projectID).Scan(&jobNumber); err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project", "details": err.Error()})
			return
		}

		rows, err := db.Query(`
		SELECT discipline, category, subcategory, cost_type, description,
		       labor_direct, labor_indirect, labor_staff, materials, equipment,
		       subcontracts, small_tools, total_cost, COALESCE(manhours, 0)
		FROM budget_line_items
		WHERE project_id = $1
		ORDER BY discipline, category, subcategory`, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch budget line items", "details": err.Error()})
			return
		}
		defer rows.Close()

		f := excelize.NewFile()
		defer f.Close()

		const sheet = "Budget"
		f.SetSheetName("Sheet1", sheet)

		header := []interface{}{"Discipline", "Category", "Subcategory", "Cost Type", "Description",
			"Direct Labor", "Indirect Labor", "Staff Labor", "Materials", "Equipment",
			"Subcontracts", "Small Tools", "Total Cost", "Manhours"}
		_ = f.SetSheetRow(sheet, "A1", &header)

		rowNum := 2
		var grandTotal float64
		for rows.Next() {
			var discipline, category, subcategory, costType, description string
			var direct, indirect, staff, materials, equipment, subs, smallTools, total, manhours float64
			err := rows.Scan(&discipline, &category, &subcategory, &costType, &description,
				&direct, &indirect, &staff, &materials, &equipment, &subs, &smallTools, &total, &manhours)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning line item", "details": err.Error()})
				return
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			_ = f.SetSheetRow(sheet, cell, &[]interface{}{discipline, category, subcategory, costType, description,
				direct, indirect, staff, materials, equipment, subs, smallTools, total, manhours})
			grandTotal += total
			rowNum++
		}

		totalCell, _ := excelize.CoordinatesToCellName(1, rowNum+1)
		_ = f.SetSheetRow(sheet, totalCell, &[]interface{}{"TOTAL", "", "", "", "", "", "", "", "", "", "", "", grandTotal})

		wbsRows, err := db.Query(`
		SELECT code, COALESCE(parent_code, ''), level, description, budget_total, manhours_total, material_cost
		FROM wbs_nodes WHERE project_id = $1 ORDER BY code`, projectID)
		if err == nil {
			defer wbsRows.Close()
			const wbsSheet = "WBS"
			if _, err := f.NewSheet(wbsSheet); err == nil {
				wbsHeader := []interface{}{"Code", "Parent", "Level", "Description", "Budget", "Manhours", "Materials"}
				_ = f.SetSheetRow(wbsSheet, "A1", &wbsHeader)
				wbsRowNum := 2
				for wbsRows.Next() {
					var code, parent, description string
					var level int
					var budget, manhours, materials float64
					if err := wbsRows.Scan(&code, &parent, &level, &description, &budget, &manhours, &materials); err != nil {
						break
					}
					cell, _ := excelize.CoordinatesToCellName(1, wbsRowNum)
					_ = f.SetSheetRow(wbsSheet, cell, &[]interface{}{code, parent, level, description, budget, manhours, materials})
					wbsRowNum++
				}
			}
		}

		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write workbook", "details": err.Error()})
			return
		}

		filename := fmt.Sprintf("budget_%s_%s.xlsx", jobNumber, time.Now().Format("20060102"))
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}
}

// GenerateProjectSummaryPDF renders a one-page cost summary for a project.
// @Summary Generate project summary PDF
// @Description Download a PDF summary of budget, labor to date and PO forecast
// @Tags Export
// @Produce application/pdf
// @Param id path int true "Project ID"
// @Success 200 {file} file "PDF document"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/projects/{id}/export/summary-pdf [get]
func GenerateProjectSummaryPDF(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var jobNumber, name, status, clientName string
		err = db.QueryRow(`
		SELECT p.job_number, p.name, p.status, COALESCE(cl.name, '')
		FROM project p
		LEFT JOIN clients cl ON p.client_id = cl.client_id
		WHERE p.project_id = $1`, projectID).Scan(&jobNumber, &name, &status, &clientName)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project", "details": err.Error()})
			return
		}

		dataset, err := repository.FetchLaborDataset(c.Request.Context(), db, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch labor data", "details": err.Error()})
			return
		}
		actuals := services.NormalizeActuals(dataset.Actuals, dataset.CraftTypes)
		kpis := services.BuildLaborKPIs(actuals, dataset.LaborBudget, dataset.HoursBudget)

		poRows, err := db.Query(`SELECT `+poSelectColumns+` FROM purchase_orders WHERE project_id = $1`, projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchase orders", "details": err.Error()})
			return
		}
		defer poRows.Close()
		var pos []models.PurchaseOrder
		for poRows.Next() {
			po, err := scanPurchaseOrder(poRows)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning purchase order", "details": err.Error()})
				return
			}
			pos = append(pos, po)
		}
		poTotals := services.CalculateTotalPOForecast(pos)

		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 18)
		pdf.CellFormat(0, 10, fmt.Sprintf("Project Summary - %s", jobNumber), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(0, 7, name, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Client: %s    Status: %s    Generated: %s",
			clientName, status, time.Now().Format("Jan 2, 2006")), "", 1, "L", false, 0, "")
		pdf.Ln(4)

		writeRow := func(label string, value string) {
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(70, 7, label, "1", 0, "L", false, 0, "")
			pdf.CellFormat(60, 7, value, "1", 1, "R", false, 0, "")
		}
		sectionHeader := func(title string) {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
		}

		sectionHeader("Labor")
		writeRow("Budgeted cost", fmt.Sprintf("$%.2f", kpis.BudgetedCost))
		writeRow("Actual cost to date", fmt.Sprintf("$%.2f", kpis.TotalActualCost))
		writeRow("Cost variance", fmt.Sprintf("$%.2f", kpis.VarianceDollars))
		writeRow("Budgeted hours", fmt.Sprintf("%.1f", kpis.BudgetedHours))
		writeRow("Actual hours to date", fmt.Sprintf("%.1f", kpis.TotalActualHours))
		writeRow("Labor burn", fmt.Sprintf("%.2f%%", kpis.LaborBurnPercent))
		writeRow("Composite rate", fmt.Sprintf("$%.2f/hr", kpis.CompositeRate))
		writeRow("Average FTE", fmt.Sprintf("%.1f", kpis.AverageFTE))
		pdf.Ln(4)

		sectionHeader("Purchase Orders")
		writeRow("Committed", fmt.Sprintf("$%.2f", poTotals.TotalCommitted))
		writeRow("Invoiced", fmt.Sprintf("$%.2f", poTotals.TotalInvoiced))
		writeRow("Forecast at completion", fmt.Sprintf("$%.2f", poTotals.TotalForecast))
		writeRow("Remaining commitments", fmt.Sprintf("$%.2f", poTotals.RemainingCommitments))

		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render PDF", "details": err.Error()})
			return
		}

		filename := fmt.Sprintf("summary_%s_%s.pdf", jobNumber, time.Now().Format("20060102"))
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	}
}

// GenerateProjectQRCode renders a labeled QR code JPEG that deep-links field
// devices to a project's dashboard.
// @Summary Generate project QR code
// @Description Returns a JPEG QR code encoding the project reference, with readable labels below it
// @Tags Export
// @Produce image/jpeg
// @Param id path int true "Project ID"
// @Success 200 {file} file "JPEG image"
// @Failure 404 {object} models.ErrorResponse
// @Router /api/projects/{id}/export/qr [get]
func GenerateProjectQRCode(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var jobNumber, name, status string
		err = db.QueryRow("SELECT job_number, name, status FROM project WHERE project_id = $1", projectID).
			Scan(&jobNumber, &name, &status)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project", "details": err.Error()})
			return
		}

		payload := struct {
			ProjectID int    `json:"project_id"`
			JobNumber string `json:"job_number"`
			Link      string `json:"link"`
		}{
			ProjectID: projectID,
			JobNumber: jobNumber,
			Link:      fmt.Sprintf("/project/%d/dashboard", projectID),
		}
		jsonData, err := json.Marshal(payload)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode QR payload"})
			return
		}

		qr, err := qrcode.New(string(jsonData), qrcode.Medium)
		if err != nil {
			c.String(http.StatusInternalServerError, "QR code generation failed")
			return
		}
		qrImg := qr.Image(512)

		qrSize := qrImg.Bounds().Dy()
		padding := 30
		lineHeight := 28
		textAreaHeight := 3*lineHeight + padding
		totalHeight := qrSize + padding + textAreaHeight

		combined := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
		draw.Draw(combined, combined.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
		draw.Draw(combined, image.Rect(0, 0, qrSize, qrSize), qrImg, image.Point{}, draw.Src)

		separatorY := qrSize + padding/2
		for x := 0; x < qrSize; x++ {
			combined.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
		}

		nameDisplay := name
		if len(nameDisplay) > 40 {
			nameDisplay = nameDisplay[:37] + "..."
		}

		startY := qrSize + padding + lineHeight
		xPos := 20
		drawImageLabel(combined, xPos, startY, "Job:", true)
		drawImageLabel(combined, xPos+100, startY, jobNumber, false)
		drawImageLabel(combined, xPos, startY+lineHeight, "Project:", true)
		drawImageLabel(combined, xPos+100, startY+lineHeight, nameDisplay, false)
		drawImageLabel(combined, xPos, startY+2*lineHeight, "Status:", true)
		drawImageLabel(combined, xPos+100, startY+2*lineHeight, status, false)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, combined, nil); err != nil {
			c.String(http.StatusInternalServerError, "JPEG encoding failed")
			return
		}

		c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
	}
}
