package store

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/funding-cli/internal/model"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Funded Companies"

var xlsxHeader = []string{
	"Company", "Website", "Funding Amount", "Amount Sold", "Funding Round",
	"Investors", "Industry", "Location", "Founded", "Sources", "Announced",
	"Description", "CEO", "Phone", "LinkedIn", "SEC Filing",
}

// WriteXLSX writes companies to a single-sheet workbook at path. Amounts are
// numeric cells; absent values are left blank.
func WriteXLSX(path string, companies []model.Company) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "store: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().SetString(h)
	}

	for _, c := range companies {
		row := sheet.AddRow()
		row.AddCell().SetString(c.Name)
		row.AddCell().SetString(c.Website)
		int64Cell(row, c.FundingAmount)
		int64Cell(row, c.AmountSold)
		row.AddCell().SetString(c.FundingRound)
		row.AddCell().SetString(joinList(c.Investors))
		row.AddCell().SetString(c.Industry)
		row.AddCell().SetString(c.Location)
		if c.FoundingYear != nil {
			row.AddCell().SetInt(*c.FoundingYear)
		} else {
			row.AddCell()
		}
		row.AddCell().SetString(c.SourceLabel())
		row.AddCell().SetString(c.AnnouncementDate)
		row.AddCell().SetString(c.Description)
		row.AddCell().SetString(c.CEOName)
		row.AddCell().SetString(c.Phone)
		row.AddCell().SetString(c.LinkedInURL)
		row.AddCell().SetString(c.SECFilingURL)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "store: save %s", path)
	}
	return nil
}

func int64Cell(row *xlsx.Row, v *int64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetInt64(*v)
	}
}

func joinList(items []string) string {
	kept := make([]string, 0, len(items))
	for _, s := range items {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, ", ")
}
