package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nichelab/niche-cli/internal/model"
)

// NotionExporter mirrors reports into one Notion database, one page per
// report. Pages are keyed by the "Report ID" property so re-exporting a
// report updates its page instead of duplicating it.
type NotionExporter struct {
	client NotionClient
	dbID   string
}

// NewNotionExporter wires an exporter against a target database.
func NewNotionExporter(client NotionClient, databaseID string) *NotionExporter {
	return &NotionExporter{client: client, dbID: databaseID}
}

// Export writes the report to Notion and returns the page id. A fresh page
// carries the full report body as blocks; an existing page only has its
// properties refreshed, since the pages API cannot replace children.
func (e *NotionExporter) Export(ctx context.Context, report *model.NicheReport) (string, error) {
	props := pageProperties(report)

	existing, err := e.findReportPage(ctx, report.ID)
	if err != nil {
		return "", err
	}

	if existing != "" {
		if _, err := e.client.UpdatePage(ctx, existing, &notionapi.PageUpdateRequest{Properties: props}); err != nil {
			return "", eris.Wrapf(err, "export: refresh report page %s", existing)
		}
		zap.L().Info("export: notion page refreshed",
			zap.String("report_id", report.ID),
			zap.String("page_id", existing),
		)
		return existing, nil
	}

	page, err := e.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(e.dbID),
		},
		Properties: props,
		Children:   reportBlocks(report),
	})
	if err != nil {
		return "", eris.Wrapf(err, "export: create report page for %s", report.ID)
	}
	zap.L().Info("export: notion page created",
		zap.String("report_id", report.ID),
		zap.String("page_id", string(page.ID)),
	)
	return string(page.ID), nil
}

// findReportPage looks up the page tagged with the report id, if any.
func (e *NotionExporter) findReportPage(ctx context.Context, reportID string) (string, error) {
	resp, err := e.client.QueryDatabase(ctx, e.dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Report ID",
			RichText: &notionapi.TextFilterCondition{Equals: reportID},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", eris.Wrap(err, "export: find report page")
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return string(resp.Results[0].ID), nil
}

// pageProperties maps the report onto the database columns. The title is the
// top recommended niche so the database reads as a list of niches.
func pageProperties(report *model.NicheReport) notionapi.Properties {
	summary := report.Summarize()
	created := notionapi.Date(report.CreatedAt)

	return notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(summary.TopNiche),
		},
		"Report ID": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(report.ID),
		},
		"User": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(report.UserID),
		},
		"Fit Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(summary.FitScore),
		},
		"Status": notionapi.StatusProperty{
			Status: notionapi.Status{Name: string(report.Status)},
		},
		"Created": notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &created},
		},
	}
}

// reportBlocks renders the report body: profile summary, niches, roadmap
// phases, and tools as headed sections.
func reportBlocks(report *model.NicheReport) []notionapi.Block {
	var blocks []notionapi.Block

	if report.ProfileSummary.BackgroundSummary != "" {
		blocks = append(blocks,
			heading("Founder Profile"),
			paragraph(report.ProfileSummary.BackgroundSummary),
		)
	}

	if len(report.RecommendedNiches) > 0 {
		blocks = append(blocks, heading("Recommended Niches"))
		for _, n := range report.RecommendedNiches {
			blocks = append(blocks, bullet(fmt.Sprintf("%s (fit %d/100, %s competition): %s",
				n.Name, n.FitScore, n.CompetitionLevel, n.Description)))
		}
	}

	if len(report.Roadmap.Phases) > 0 {
		blocks = append(blocks, heading("Roadmap"))
		for _, p := range report.Roadmap.Phases {
			blocks = append(blocks, bullet(fmt.Sprintf("%s: %s", p.PhaseName, joinOrDash(p.Goals))))
		}
	}

	if len(report.ToolRecommendations) > 0 {
		blocks = append(blocks, heading("Tools"))
		for _, tool := range report.ToolRecommendations {
			blocks = append(blocks, bullet(fmt.Sprintf("%s (%s): %s", tool.Name, tool.Pricing, tool.WhyRecommended)))
		}
	}

	return blocks
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}

func heading(s string) notionapi.Block {
	return notionapi.Heading2Block{
		BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeHeading2},
		Heading2:   notionapi.Heading{RichText: richText(s)},
	}
}

func paragraph(s string) notionapi.Block {
	return notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeParagraph},
		Paragraph:  notionapi.Paragraph{RichText: richText(s)},
	}
}

func bullet(s string) notionapi.Block {
	return notionapi.BulletedListItemBlock{
		BasicBlock:       notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeBulletedListItem},
		BulletedListItem: notionapi.ListItem{RichText: richText(s)},
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, "; ")
}
