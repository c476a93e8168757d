package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dataforwardpro/dataforwardpro/internal/model"
	"github.com/dataforwardpro/dataforwardpro/internal/target"
	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

const exportSheet = "Sheet1"

// ExportRules 将规则列表导出为xlsx文件，返回生成的文件路径
func ExportRules(dir string, rules []model.ForwardingRule) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"ID", "名称", "描述", "启用", "脚本", "来源数量", "目标", "更新时间"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}

	for row, rule := range rules {
		summaries := make([]string, 0, len(rule.Targets))
		for _, t := range rule.Targets {
			summaries = append(summaries, target.Summarize(t))
		}
		enabled := "否"
		if rule.IsEnabled() {
			enabled = "是"
		}
		values := []interface{}{
			rule.ID,
			rule.Name,
			rule.Description,
			enabled,
			rule.ScriptName,
			len(rule.Sources),
			strings.Join(summaries, "; "),
			rule.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(exportSheet, cell, v)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("forwarding_rules_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save export file: %w", err)
	}

	logger.Info("Rules exported", "path", path, "count", len(rules))
	return path, nil
}

// ExportScripts 将脚本列表导出为xlsx文件，返回生成的文件路径
func ExportScripts(dir string, scripts []model.ForwardingScript) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"ID", "名称", "描述", "启用", "备注", "更新时间"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}

	for row, script := range scripts {
		enabled := "否"
		if script.Enabled == 1 {
			enabled = "是"
		}
		values := []interface{}{
			script.ID,
			script.Name,
			script.Description,
			enabled,
			script.Remark,
			script.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(exportSheet, cell, v)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("forwarding_scripts_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save export file: %w", err)
	}

	logger.Info("Scripts exported", "path", path, "count", len(scripts))
	return path, nil
}
