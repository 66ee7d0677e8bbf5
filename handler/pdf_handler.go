package handler

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"main/model"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
)

const institutionName = "Daffodil International University"

// GenerateResultPDF serves POST /api/generateResultPdf: a synchronous
// transform from a student's result rows into a downloadable PDF. No
// persistence, no upstream call.
func GenerateResultPDF(c *gin.Context) {
	var req model.ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "studentInfo and resultData are required")
		return
	}
	if len(req.ResultData) == 0 {
		utils.BadRequest(c, "resultData must not be empty")
		return
	}

	var buf bytes.Buffer
	if err := buildResultPDF(&req, &buf); err != nil {
		log.Printf("pdf: generation failed for student %s: %v", req.StudentInfo.ID, err)
		utils.InternalError(c, "Failed to generate result PDF")
		return
	}

	filename := fmt.Sprintf("Academic_Result_%s.pdf", req.StudentInfo.ID)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func buildResultPDF(req *model.ResultRequest, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Academic Result - %s", req.StudentInfo.ID), false)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// Header block with institution identity.
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, institutionName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	title := "Academic Result"
	if req.SemesterName != "" {
		title = fmt.Sprintf("Academic Result - %s", req.SemesterName)
	}
	pdf.CellFormat(0, 7, title, "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetDrawColor(60, 60, 60)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(4)

	// Student identity block.
	pdf.SetFont("Arial", "", 10)
	identity := [][2]string{
		{"Student ID", req.StudentInfo.ID},
		{"Name", req.StudentInfo.Name},
		{"Program", req.StudentInfo.Program},
		{"Batch", req.StudentInfo.Batch},
		{"Shift", req.StudentInfo.Shift},
	}
	for _, row := range identity {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(30, 6, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, ": "+row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Course table.
	colWidths := []float64{28, 82, 20, 30, 30}
	headers := []string{"Course Code", "Course Title", "Credit", "Grade", "Grade Point"}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range req.ResultData {
		courseTitle := row.CourseTitle
		if len(courseTitle) > 48 {
			courseTitle = courseTitle[:45] + "..."
		}
		pdf.CellFormat(colWidths[0], 6, row.CourseCode, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[1], 6, courseTitle, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[2], 6, fmt.Sprintf("%.1f", row.Credit), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[3], 6, row.Grade, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[4], 6, fmt.Sprintf("%.2f", row.GradePoint), "1", 1, "C", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(colWidths[0]+colWidths[1]+colWidths[2]+colWidths[3], 7, "CGPA", "1", 0, "R", false, 0, "")
	pdf.CellFormat(colWidths[4], 7, fmt.Sprintf("%.2f", req.CGPA()), "1", 1, "C", false, 0, "")
	pdf.Ln(8)

	// Certification block.
	pdf.SetFont("Arial", "", 9)
	certification := fmt.Sprintf(
		"This is to certify that the above result of %s (ID: %s) has been generated from the "+
			"student portal and reflects the records held by the university at the time of generation.",
		strings.TrimSpace(req.StudentInfo.Name), req.StudentInfo.ID)
	pdf.MultiCell(0, 5, certification, "", "L", false)
	pdf.Ln(12)
	pdf.CellFormat(60, 5, "_______________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, "", "", 1, "L", false, 0, "")
	pdf.CellFormat(60, 5, "Controller of Examinations", "", 1, "L", false, 0, "")

	return pdf.Output(w)
}
