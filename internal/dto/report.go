package dto

// ComplianceQuery bounds the compliance report period.
type ComplianceQuery struct {
	StartDate string `form:"startDate" validate:"required"`
	EndDate   string `form:"endDate" validate:"required"`
	Format    string `form:"format"`
}

// EmployeeCompliance aggregates one employee's validation outcomes.
type EmployeeCompliance struct {
	EmployeeID   string   `json:"employeeId"`
	EmployeeName string   `json:"employeeName,omitempty"`
	TotalShifts  int      `json:"totalShifts"`
	CleanShifts  int      `json:"cleanShifts"`
	Violations   []string `json:"violations"`
	Warnings     []string `json:"warnings"`
	Compliance   float64  `json:"compliance"`
}

// ComplianceReport is the aggregated result over the requested period.
type ComplianceReport struct {
	StartDate         string               `json:"startDate"`
	EndDate           string               `json:"endDate"`
	TotalShifts       int                  `json:"totalShifts"`
	CompliantShifts   int                  `json:"compliantShifts"`
	OverallCompliance float64              `json:"overallCompliance"`
	Employees         []EmployeeCompliance `json:"employees"`
}
