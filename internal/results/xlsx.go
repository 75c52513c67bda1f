package results

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Scores"

// ExportXLSX 把结果表转换为 XLSX 工作簿，分数列写为数字
func ExportXLSX(header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(xlsxSheet); err != nil {
		return nil, fmt.Errorf("创建工作表失败: %w", err)
	}
	index, err := f.GetSheetIndex(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("查找工作表失败: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("删除默认工作表失败: %w", err)
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return nil, fmt.Errorf("写入表头失败: %w", err)
		}
	}

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			var value any = v
			if n, err := strconv.Atoi(v); err == nil {
				value = n
			}
			if err := f.SetCellValue(xlsxSheet, cell, value); err != nil {
				return nil, fmt.Errorf("写入单元格 %s 失败: %w", cell, err)
			}
		}
	}

	if len(header) > 0 {
		last, _ := excelize.ColumnNumberToName(len(header))
		if err := f.SetColWidth(xlsxSheet, "A", last, 20); err != nil {
			return nil, fmt.Errorf("设置列宽失败: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("生成xlsx失败: %w", err)
	}
	return buf.Bytes(), nil
}
