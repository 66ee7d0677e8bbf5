package model

// StudentInfo is the identity block printed on a generated result sheet.
type StudentInfo struct {
	ID      string `json:"id" binding:"required,studentid"`
	Name    string `json:"name"`
	Program string `json:"program"`
	Batch   string `json:"batch"`
	Shift   string `json:"shift"`
}

// CourseResult is one row of the course/grade/credit table.
type CourseResult struct {
	CourseCode  string  `json:"courseCode"`
	CourseTitle string  `json:"courseTitle"`
	Credit      float64 `json:"totalCredit"`
	Grade       string  `json:"gradeLetter"`
	GradePoint  float64 `json:"pointEquivalent"`
}

// ResultRequest is the payload of the PDF generation endpoint.
type ResultRequest struct {
	StudentInfo  *StudentInfo   `json:"studentInfo" binding:"required"`
	ResultData   []CourseResult `json:"resultData" binding:"required"`
	SemesterName string         `json:"semesterName"`
}

// CGPA computes the credit-weighted grade point average of the rows.
func (r *ResultRequest) CGPA() float64 {
	var credits, points float64
	for _, row := range r.ResultData {
		credits += row.Credit
		points += row.Credit * row.GradePoint
	}
	if credits == 0 {
		return 0
	}
	return points / credits
}
