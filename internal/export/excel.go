package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/jobmatcher/internal/scoring"
)

const (
	SummarySheet = "Summary"
	MatchesSheet = "Matches"
)

var matchHeaders = []string{
	"Rank", "Vacancy ID", "Title", "Company", "Candidate", "Score", "Level",
	"Skills", "Experience", "Location", "Education", "Work conditions", "Salary", "Culture",
	"Positives", "Negatives",
}

// now is replaced in tests.
var now = time.Now

// ToExcel writes a match report with a summary sheet and one row per result,
// in the given order. The .xlsx extension is added when missing.
func ToExcel(results []scoring.MatchResult, title, outputPath string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(MatchesSheet); err != nil {
		return "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return "", err
	}

	if err := writeSummary(f, headerStyle, results, title); err != nil {
		return "", fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeMatches(f, headerStyle, results); err != nil {
		return "", fmt.Errorf("matches sheet: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("save %s: %w", outputPath, err)
	}
	return outputPath, nil
}

func writeSummary(f *excelize.File, headerStyle int, results []scoring.MatchResult, title string) error {
	if err := f.SetColWidth(SummarySheet, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 50); err != nil {
		return err
	}

	levels := map[scoring.Level]int{}
	var total float64
	for _, r := range results {
		levels[r.Level]++
		total += r.Score
	}
	average := 0.0
	if len(results) > 0 {
		average = total / float64(len(results))
	}

	rows := [][]any{
		{"Match report", title},
		{"Generated", now().Format("2006-01-02 15:04:05")},
		{"Results", len(results)},
		{"Average score", fmt.Sprintf("%.2f", average)},
		{"High (85+)", levels[scoring.LevelHigh]},
		{"Medium (70-84)", levels[scoring.LevelMedium]},
		{"Low (50-69)", levels[scoring.LevelLow]},
		{"Incompatible (<50)", levels[scoring.LevelIncompatible]},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle)
}

func writeMatches(f *excelize.File, headerStyle int, results []scoring.MatchResult) error {
	if err := f.SetSheetRow(MatchesSheet, "A1", &matchHeaders); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(matchHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(MatchesSheet, "A1", last, headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(MatchesSheet, "C", "E", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(MatchesSheet, "O", "P", 60); err != nil {
		return err
	}

	for i, r := range results {
		name := ""
		if r.Candidate != nil {
			name = r.Candidate.Name
			if name == "" {
				name = r.Candidate.ID
			}
		}
		row := []any{
			i + 1, r.VacancyID, r.Title, r.Company, name, r.Score, string(r.Level),
			r.Scores.Skills, r.Scores.Experience, r.Scores.Location, r.Scores.Education,
			r.Scores.WorkConditions, r.Scores.Salary, r.Scores.Culture,
			strings.Join(r.Positives, "; "), strings.Join(r.Negatives, "; "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(MatchesSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
