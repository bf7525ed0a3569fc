package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ESGData is the company record submitted for assessment. Only CompanyName
// and Industry are mandatory; the backend estimates whatever is missing.
type ESGData struct {
	CompanyName      string             `json:"companyName"`
	Industry         string             `json:"industry"`
	EmployeeCount    *int               `json:"employeeCount,omitempty"`
	AnnualRevenue    *float64           `json:"annualRevenue,omitempty"`
	EnergyUsage      *float64           `json:"energyUsage,omitempty"`
	WasteGenerated   *float64           `json:"wasteGenerated,omitempty"`
	WaterUsage       *float64           `json:"waterUsage,omitempty"`
	CarbonEmissions  *float64           `json:"carbonEmissions,omitempty"`
	DiversityMetrics *DiversityMetrics  `json:"diversityMetrics,omitempty"`
	Governance       *GovernanceMetrics `json:"governance,omitempty"`
}

type DiversityMetrics struct {
	GenderRatio            string `json:"genderRatio,omitempty"`
	MinorityRepresentation string `json:"minorityRepresentation,omitempty"`
}

type GovernanceMetrics struct {
	BoardSize            *int  `json:"boardSize,omitempty"`
	IndependentDirectors *int  `json:"independentDirectors,omitempty"`
	HasEthicsPolicy      *bool `json:"hasEthicsPolicy,omitempty"`
}

// Validate checks the two mandatory fields.
func (d ESGData) Validate() error {
	if strings.TrimSpace(d.CompanyName) == "" || strings.TrimSpace(d.Industry) == "" {
		return fmt.Errorf("company name and industry are required")
	}
	return nil
}

// ESGReport is the scored assessment returned to callers.
type ESGReport struct {
	Summary              string    `json:"summary"`
	EnvironmentalScore   int       `json:"environmentalScore"`
	SocialScore          int       `json:"socialScore"`
	GovernanceScore      int       `json:"governanceScore"`
	OverallScore         int       `json:"overallScore"`
	Recommendations      []string  `json:"recommendations"`
	EnvironmentalDetails string    `json:"environmentalDetails"`
	SocialDetails        string    `json:"socialDetails"`
	GovernanceDetails    string    `json:"governanceDetails"`
	ComplianceStatus     string    `json:"complianceStatus"`
	GeneratedAt          time.Time `json:"generatedAt"`
}

// Report is one persisted row of esg_reports.
type Report struct {
	ID                   string     `json:"id" db:"id"`
	UserID               string     `json:"user_id" db:"user_id"`
	CompanyName          string     `json:"company_name" db:"company_name"`
	Industry             string     `json:"industry" db:"industry"`
	EmployeeCount        *int       `json:"employee_count" db:"employee_count"`
	AnnualRevenue        *float64   `json:"annual_revenue" db:"annual_revenue"`
	EnvironmentalScore   int        `json:"environmental_score" db:"environmental_score"`
	SocialScore          int        `json:"social_score" db:"social_score"`
	GovernanceScore      int        `json:"governance_score" db:"governance_score"`
	OverallScore         int        `json:"overall_score" db:"overall_score"`
	Summary              string     `json:"summary" db:"summary"`
	EnvironmentalDetails string     `json:"environmental_details" db:"environmental_details"`
	SocialDetails        string     `json:"social_details" db:"social_details"`
	GovernanceDetails    string     `json:"governance_details" db:"governance_details"`
	ComplianceStatus     string     `json:"compliance_status" db:"compliance_status"`
	Recommendations      StringList `json:"recommendations" db:"recommendations"`
	InputData            JSONB      `json:"input_data" db:"input_data"`
	IsGuestReport        bool       `json:"is_guest_report" db:"is_guest_report"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
}

// NewReport builds the row stored for an authenticated user's report.
func NewReport(userID string, in ESGData, r *ESGReport) (*Report, error) {
	input, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input data: %w", err)
	}
	return &Report{
		UserID:               userID,
		CompanyName:          in.CompanyName,
		Industry:             in.Industry,
		EmployeeCount:        in.EmployeeCount,
		AnnualRevenue:        in.AnnualRevenue,
		EnvironmentalScore:   r.EnvironmentalScore,
		SocialScore:          r.SocialScore,
		GovernanceScore:      r.GovernanceScore,
		OverallScore:         r.OverallScore,
		Summary:              r.Summary,
		EnvironmentalDetails: r.EnvironmentalDetails,
		SocialDetails:        r.SocialDetails,
		GovernanceDetails:    r.GovernanceDetails,
		ComplianceStatus:     r.ComplianceStatus,
		Recommendations:      StringList(r.Recommendations),
		InputData:            JSONB(input),
		CreatedAt:            r.GeneratedAt,
	}, nil
}

// ESGReport converts the row back to the normalized report shape. The
// creation time stands in for generatedAt.
func (r *Report) ESGReport() ESGReport {
	recs := []string(r.Recommendations)
	if recs == nil {
		recs = []string{}
	}
	return ESGReport{
		Summary:              r.Summary,
		EnvironmentalScore:   r.EnvironmentalScore,
		SocialScore:          r.SocialScore,
		GovernanceScore:      r.GovernanceScore,
		OverallScore:         r.OverallScore,
		Recommendations:      recs,
		EnvironmentalDetails: r.EnvironmentalDetails,
		SocialDetails:        r.SocialDetails,
		GovernanceDetails:    r.GovernanceDetails,
		ComplianceStatus:     r.ComplianceStatus,
		GeneratedAt:          r.CreatedAt,
	}
}

// ReportResponse is the body of the report fetch endpoint.
type ReportResponse struct {
	Report      ESGReport `json:"report"`
	CompanyName string    `json:"company_name"`
	Industry    string    `json:"industry"`
}

// StringList is a []string stored as a JSONB array.
type StringList []string

// Value returns a string: lib/pq sends []byte parameters as bytea.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// JSONB holds an arbitrary JSON document column.
type JSONB json.RawMessage

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSONB) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		*j = append((*j)[:0], v...)
		return nil
	case string:
		*j = JSONB(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into JSONB", src)
	}
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}
