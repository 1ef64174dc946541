// Package report renders battery range query results as XLSX and PDF
// documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet   = "summary"
	batteriesSheet = "batteries"
	unboundedLabel = "(unbounded)"
)

// RangeReport is a range query together with its result.
type RangeReport struct {
	StartPostcode   string
	EndPostcode     string
	StartCapacity   string
	EndCapacity     string
	Batteries       []string
	TotalCapacity   int64
	AverageCapacity float64
	GeneratedAt     time.Time
}

func (r RangeReport) capacityBound(v string) string {
	if v == "" {
		return unboundedLabel
	}
	return v
}

// BuildRangeXLSX renders a workbook with a summary sheet and a sheet listing
// the matched battery names.
func BuildRangeXLSX(r RangeReport) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("renaming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(batteriesSheet); err != nil {
		return nil, fmt.Errorf("creating batteries sheet: %w", err)
	}

	rows := [][2]any{
		{"Battery Range Report", nil},
		{nil, nil},
		{"Start postcode", r.StartPostcode},
		{"End postcode", r.EndPostcode},
		{"Start capacity", r.capacityBound(r.StartCapacity)},
		{"End capacity", r.capacityBound(r.EndCapacity)},
		{"Batteries", len(r.Batteries)},
		{"Total capacity", r.TotalCapacity},
		{"Average capacity", r.AverageCapacity},
		{"Generated", r.GeneratedAt.UTC().Format(time.RFC3339)},
	}
	for i, row := range rows {
		for col, value := range row {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(summarySheet, cell, value); err != nil {
				return nil, fmt.Errorf("writing %s: %w", cell, err)
			}
		}
	}

	if err := f.SetCellValue(batteriesSheet, "A1", "Name"); err != nil {
		return nil, err
	}
	for i, name := range r.Batteries {
		if err := f.SetCellValue(batteriesSheet, fmt.Sprintf("A%d", i+2), name); err != nil {
			return nil, fmt.Errorf("writing battery row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildRangePDF renders a single-page summary followed by the name table.
func BuildRangePDF(r RangeReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Battery Range Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{
		fmt.Sprintf("Postcodes: %s - %s", r.StartPostcode, r.EndPostcode),
		fmt.Sprintf("Capacity: %s - %s", r.capacityBound(r.StartCapacity), r.capacityBound(r.EndCapacity)),
		fmt.Sprintf("Batteries: %d", len(r.Batteries)),
		fmt.Sprintf("Total capacity: %d", r.TotalCapacity),
		fmt.Sprintf("Average capacity: %.2f", r.AverageCapacity),
		fmt.Sprintf("Generated: %s", r.GeneratedAt.UTC().Format(time.RFC3339)),
	} {
		pdf.Cell(0, 6, line)
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 6, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(120, 6, "Name", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i, name := range r.Batteries {
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", i+1), "1", 0, "R", false, 0, "")
		pdf.CellFormat(120, 6, name, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}
