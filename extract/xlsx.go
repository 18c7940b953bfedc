// Copyright 2025 The Semindex Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/semindex/semindex/fault"
)

// maxCellsPerSheet caps how many non-empty cells contribute per sheet.
const maxCellsPerSheet = 1000

// extractXLSX extracts cell text per sheet, joined with blank lines.
func extractXLSX(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fault.Wrap(fault.KindUnprocessable, err, "failed to parse XLSX %s", path)
	}
	defer f.Close()

	var sheetParts []string

	for _, sheetName := range f.GetSheetList() {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}

		var sheetText strings.Builder
		sheetText.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))

		cellCount := 0
		empty := true
		for _, row := range rows {
			if cellCount >= maxCellsPerSheet {
				sheetText.WriteString("... (truncated)\n")
				break
			}
			for _, cell := range row {
				if cellCount >= maxCellsPerSheet {
					break
				}
				if text := strings.TrimSpace(cell); text != "" {
					sheetText.WriteString(text)
					sheetText.WriteString("\n")
					cellCount++
					empty = false
				}
			}
		}

		if !empty {
			sheetParts = append(sheetParts, strings.TrimSpace(sheetText.String()))
		}
	}

	if len(sheetParts) == 0 {
		return "", fault.New(fault.KindUnprocessable, "no extractable text in XLSX %s", path)
	}

	return strings.Join(sheetParts, "\n\n"), nil
}
