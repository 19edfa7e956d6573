// Package report renders completed runs for humans: an Excel workbook with
// the curves and raw outcomes, and a Markdown/HTML summary. Presentation
// only; the core pipeline never depends on this package.
package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"gopower/internal/errors"
	"gopower/ports"
)

// ExcelWriter writes a run report as an .xlsx workbook with one sheet for
// the power curve, one for the interpolated curve, and one for the raw
// replication outcomes.
type ExcelWriter struct{}

// NewExcelWriter creates an Excel report writer.
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

// Write renders the report to path.
func (w *ExcelWriter) Write(report ports.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const curveSheet = "Power Curve"
	f.SetSheetName("Sheet1", curveSheet)
	headers := []string{"Sample Size", "Power", "Significant", "Fitted", "Failed", "Mean Estimate", "SD Estimate"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(curveSheet, cell, h)
	}
	for row, p := range report.Curve.Points {
		values := []interface{}{p.SampleSize, cellFloat(p.Power), p.Significant, p.Fitted, p.Failed, cellFloat(p.MeanEstimate), cellFloat(p.SDEstimate)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(curveSheet, cell, v)
		}
	}

	const interpSheet = "Interpolated"
	f.NewSheet(interpSheet)
	f.SetCellValue(interpSheet, "A1", "Sample Size")
	f.SetCellValue(interpSheet, "B1", "Interpolated Power")
	for i, v := range report.Interpolated.Values {
		f.SetCellValue(interpSheet, fmt.Sprintf("A%d", i+2), report.Interpolated.MinN+i)
		f.SetCellValue(interpSheet, fmt.Sprintf("B%d", i+2), v)
	}

	const outcomeSheet = "Outcomes"
	f.NewSheet(outcomeSheet)
	outHeaders := []string{"Sample Size", "Replication", "P Value", "Estimate", "Significant", "Failed", "Error"}
	for i, h := range outHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(outcomeSheet, cell, h)
	}
	for row, o := range report.Outcomes {
		values := []interface{}{o.SampleSize, o.Replication, o.PValue, o.Estimate, o.Significant, o.Failed, o.Error}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(outcomeSheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ReportError("failed to write excel report", err)
	}
	return nil
}

func cellFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return "NA"
	}
	return v
}
