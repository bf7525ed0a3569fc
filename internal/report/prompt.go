package report

import (
	"encoding/json"
	"fmt"

	"github.com/illegalcall/esgtracker/internal/llm"
	"github.com/illegalcall/esgtracker/internal/models"
)

const systemPrompt = `You are an ESG (Environmental, Social, Governance) compliance expert. Analyze the provided company data and generate a comprehensive ESG report.

IMPORTANT: Your response must be valid JSON matching this exact structure:
{
  "summary": "Brief executive summary of ESG performance",
  "environmentalScore": 0-100,
  "socialScore": 0-100,
  "governanceScore": 0-100,
  "overallScore": 0-100,
  "recommendations": ["recommendation 1", "recommendation 2", ...],
  "environmentalDetails": "Detailed environmental analysis",
  "socialDetails": "Detailed social analysis",
  "governanceDetails": "Detailed governance analysis",
  "complianceStatus": "EU CSRD compliance status assessment"
}

Where data is missing, estimate it from industry benchmarks for a company of this size instead of refusing.
Base your analysis on industry standards, available data, and ESG best practices. Be specific and actionable.`

// BuildPrompt renders the instruction and the indented company record.
func BuildPrompt(data models.ESGData) (llm.Prompt, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return llm.Prompt{}, fmt.Errorf("failed to marshal company data: %w", err)
	}
	return llm.Prompt{
		System: systemPrompt,
		User:   "Generate an ESG report for this company:\n" + string(payload),
	}, nil
}
