// Package export renders stored reports into external formats: xlsx
// workbooks for offline review and Notion pages for shared workspaces.
package export

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/nichelab/niche-cli/internal/model"
)

// WriteXLSX writes a report as a four-sheet workbook: Overview, Niches,
// Roadmap, and Tools.
func WriteXLSX(report *model.NicheReport, path string) error {
	f := xlsx.NewFile()

	if err := addOverviewSheet(f, report); err != nil {
		return err
	}
	if err := addNichesSheet(f, report); err != nil {
		return err
	}
	if err := addRoadmapSheet(f, report); err != nil {
		return err
	}
	if err := addToolsSheet(f, report); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

func addOverviewSheet(f *xlsx.File, report *model.NicheReport) error {
	sheet, err := f.AddSheet("Overview")
	if err != nil {
		return eris.Wrap(err, "export: add overview sheet")
	}

	selected := ""
	if report.SelectedNiche != nil {
		selected = report.SelectedNiche.Name
	}

	rows := [][2]string{
		{"Report ID", report.ID},
		{"Created", report.CreatedAt.Format("2006-01-02 15:04")},
		{"Status", string(report.Status)},
		{"Selected Niche", selected},
		{"Background", report.ProfileSummary.BackgroundSummary},
		{"Key Strengths", strings.Join(report.ProfileSummary.KeyStrengths, ", ")},
		{"Notable Skills", strings.Join(report.ProfileSummary.NotableSkills, ", ")},
		{"Constraints", report.ProfileSummary.ConstraintsSummary},
		{"Founder Archetype", report.ProfileSummary.IdealFounderArchetype},
		{"Milestones Completed", strings.Join(report.MilestonesCompleted, "; ")},
	}
	for _, kv := range rows {
		row := sheet.AddRow()
		row.AddCell().Value = kv[0]
		row.AddCell().Value = kv[1]
	}
	return nil
}

func addNichesSheet(f *xlsx.File, report *model.NicheReport) error {
	sheet, err := f.AddSheet("Niches")
	if err != nil {
		return eris.Wrap(err, "export: add niches sheet")
	}

	addHeaderRow(sheet, "Name", "Fit Score", "Competition", "Description",
		"Problem", "Target Audience", "Why It Fits", "Market Opportunity",
		"Improvement Areas", "Cofounder Skills")

	for _, n := range report.RecommendedNiches {
		row := sheet.AddRow()
		row.AddCell().Value = n.Name
		row.AddCell().SetInt(n.FitScore)
		row.AddCell().Value = n.CompetitionLevel
		row.AddCell().Value = n.Description
		row.AddCell().Value = n.ProblemStatement
		row.AddCell().Value = n.TargetAudience
		row.AddCell().Value = n.WhyFitsYou
		row.AddCell().Value = n.MarketOpportunity
		row.AddCell().Value = strings.Join(n.ImprovementAreas, "; ")
		row.AddCell().Value = strings.Join(n.CofounderSkillsNeeded, "; ")
	}
	return nil
}

// addRoadmapSheet lays out phases, then the suggested interim roles, then
// the first-customer strategies as stacked sections.
func addRoadmapSheet(f *xlsx.File, report *model.NicheReport) error {
	sheet, err := f.AddSheet("Roadmap")
	if err != nil {
		return eris.Wrap(err, "export: add roadmap sheet")
	}

	addHeaderRow(sheet, "Phase", "Goals", "Actions", "Milestones", "Deliverables", "Resources")
	for _, p := range report.Roadmap.Phases {
		row := sheet.AddRow()
		row.AddCell().Value = p.PhaseName
		row.AddCell().Value = strings.Join(p.Goals, "; ")
		row.AddCell().Value = strings.Join(p.Actions, "; ")
		row.AddCell().Value = strings.Join(p.Milestones, "; ")
		row.AddCell().Value = strings.Join(p.Deliverables, "; ")
		row.AddCell().Value = joinResources(p.Resources)
	}

	if len(report.Roadmap.SuggestedRoles) > 0 {
		sheet.AddRow()
		addHeaderRow(sheet, "Suggested Role", "Company Type", "Why", "Duration")
		for _, r := range report.Roadmap.SuggestedRoles {
			row := sheet.AddRow()
			row.AddCell().Value = r["role"]
			row.AddCell().Value = r["company_type"]
			row.AddCell().Value = r["why"]
			row.AddCell().Value = r["duration"]
		}
	}

	if len(report.Roadmap.FirstCustomerStrategies) > 0 {
		sheet.AddRow()
		addHeaderRow(sheet, "First Customer Strategies")
		for _, s := range report.Roadmap.FirstCustomerStrategies {
			sheet.AddRow().AddCell().Value = s
		}
	}
	return nil
}

func addToolsSheet(f *xlsx.File, report *model.NicheReport) error {
	sheet, err := f.AddSheet("Tools")
	if err != nil {
		return eris.Wrap(err, "export: add tools sheet")
	}

	addHeaderRow(sheet, "Name", "Category", "Pricing", "URL", "Description", "Why Recommended")
	for _, tool := range report.ToolRecommendations {
		row := sheet.AddRow()
		row.AddCell().Value = tool.Name
		row.AddCell().Value = tool.Category
		row.AddCell().Value = tool.Pricing
		row.AddCell().Value = tool.URL
		row.AddCell().Value = tool.Description
		row.AddCell().Value = tool.WhyRecommended
	}
	return nil
}

func addHeaderRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().Value = c
	}
}

func joinResources(resources []map[string]string) string {
	parts := make([]string, 0, len(resources))
	for _, r := range resources {
		if url := r["url"]; url != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", r["name"], url))
		} else {
			parts = append(parts, r["name"])
		}
	}
	return strings.Join(parts, "; ")
}
