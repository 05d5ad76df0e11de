// Package excel renders the positions report as an xlsx workbook: a
// summary sheet over all rounds plus one detail sheet per round.
package excel

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report []model.InstancePositions) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, inst := range report {
		sheetName := buildSheetName(inst.BreakdownName, inst.InstanceID, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeDetail(file, sheetName, inst); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report []model.InstancePositions) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Breakdown")
	set("B1", "Round")
	set("C1", "Status")
	set("D1", "Positions")
	set("E1", "Claimed")
	set("F1", "Claimed total")

	for i, inst := range report {
		row := 2 + i
		claimed := 0
		var claimedTotal float64
		for _, pos := range inst.Positions {
			if pos.Claimed {
				claimed++
				claimedTotal += pos.Price
			}
		}
		set(fmt.Sprintf("A%d", row), inst.BreakdownName)
		set(fmt.Sprintf("B%d", row), inst.InstanceID.String())
		set(fmt.Sprintf("C%d", row), string(inst.Status))
		set(fmt.Sprintf("D%d", row), len(inst.Positions))
		set(fmt.Sprintf("E%d", row), claimed)
		set(fmt.Sprintf("F%d", row), fmt.Sprintf("%.2f", claimedTotal))
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "B", 38)
	_ = file.SetColWidth(sheet, "C", "F", 14)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, inst model.InstancePositions) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Breakdown")
	set("B1", inst.BreakdownName)
	set("A2", "Round")
	set("B2", inst.InstanceID.String())
	set("A3", "Status")
	set("B3", string(inst.Status))

	tableRow := 5
	headers := []string{"Item", "Price", "Claimed", "Claimed by"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, pos := range inst.Positions {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), pos.ItemName)
		set(fmt.Sprintf("B%d", row), fmt.Sprintf("%.2f", pos.Price))
		set(fmt.Sprintf("C%d", row), claimedLabel(pos.Claimed))
		set(fmt.Sprintf("D%d", row), pos.ClaimedBy)
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "C", 12)
	_ = file.SetColWidth(sheet, "D", "D", 24)
	return nil
}

func claimedLabel(claimed bool) string {
	if claimed {
		return "yes"
	}
	return "free"
}

func buildSheetName(breakdownName string, id uuid.UUID, used map[string]struct{}) string {
	base := strings.TrimSpace(breakdownName)
	if base == "" {
		base = id.String()
	}
	base = sanitizeSheetName(base)

	if len(base) > 31 {
		base = base[:31]
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		nameCandidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Sheet"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = replacer.Replace(value)
	value = strings.TrimSpace(value)
	if value == "" {
		return "Sheet"
	}
	return value
}
