package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
)

// TableBlock renders a table as GFM pipes when it fits MaxTableWidth columns,
// and as an HTML <table> beyond that. The block text starts with the structural
// prefix ("|" or "<table") the chunker uses to classify it as atomic.
func TableBlock(header []string, rows [][]string) string {
	if len(header) <= MaxTableWidth {
		return gfmTable(header, rows)
	}
	return htmlTable(header, rows)
}

func gfmTable(header []string, rows [][]string) string {
	var sb strings.Builder
	sb.WriteString("| " + strings.Join(escapePipes(header), " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, row := range rows {
		cells := escapePipes(padRow(row, len(header)))
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func htmlTable(header []string, rows [][]string) string {
	var sb strings.Builder
	sb.WriteString("<table>\n<thead>\n<tr>")
	for _, h := range header {
		sb.WriteString("<th>" + html.EscapeString(h) + "</th>")
	}
	sb.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, row := range rows {
		sb.WriteString("<tr>")
		for _, c := range padRow(row, len(header)) {
			sb.WriteString("<td>" + html.EscapeString(c) + "</td>")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n</table>")
	return sb.String()
}

func escapePipes(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// extractCSV renders the whole file as one captioned table under a synthetic
// "Sheet: default" heading, mirroring the single-sheet spreadsheet case.
func extractCSV(data []byte) ([]core.Block, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	heading := "Sheet: default"
	return []core.Block{
		{Text: "*Table: default (csv)*", HeadingPath: heading},
		{Text: TableBlock(records[0], records[1:]), HeadingPath: heading},
	}, nil
}

// extractXLSX renders every sheet as a captioned table under its own
// "Sheet: <name>" heading so the chunker keeps sheets in separate sections.
func extractXLSX(data []byte) ([]core.Block, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var blocks []core.Block
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		heading := "Sheet: " + sheet
		blocks = append(blocks,
			core.Block{Text: fmt.Sprintf("*Table: %s*", sheet), HeadingPath: heading},
			core.Block{Text: TableBlock(rows[0], rows[1:]), HeadingPath: heading},
		)
	}
	return blocks, nil
}
