package cmd

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/rezonia/finvoice-apix/internal/model"
)

const pendingSheet = "Pending"

var pendingHeaders = []string{"Storage ID", "Status", "Document ID", "Document", "Ready", "Downloaded"}

// writePendingReport writes the inbox listing of company as an xlsx workbook
func writePendingReport(path string, company model.Company, pending []PendingFile) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(pendingSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}

	_ = f.SetCellValue(pendingSheet, "A1", company.Party.Name)
	_ = f.SetCellValue(pendingSheet, "B1", company.ID)

	for i, h := range pendingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(pendingSheet, cell, h)
	}

	skipped, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "9A0511"},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for i, p := range pending {
		row := i + 4
		_ = f.SetCellValue(pendingSheet, fmt.Sprintf("A%d", row), p.StorageID)
		_ = f.SetCellValue(pendingSheet, fmt.Sprintf("B%d", row), p.StorageStatus)
		_ = f.SetCellValue(pendingSheet, fmt.Sprintf("C%d", row), p.DocumentID)
		_ = f.SetCellValue(pendingSheet, fmt.Sprintf("D%d", row), p.DocumentName)
		_ = f.SetCellValue(pendingSheet, fmt.Sprintf("E%d", row), yesNo(p.Ready))
		_ = f.SetCellValue(pendingSheet, fmt.Sprintf("F%d", row), yesNo(p.Downloaded))
		if !p.Ready {
			_ = f.SetCellStyle(pendingSheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), skipped)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
