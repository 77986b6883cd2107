package mapping

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names the workbook must contain. A missing sheet is a fatal load
// error.
var requiredSheets = []string{"SingleField", "Repo", "URL", "ProductsFields", "ProductsData"}

// LoadWorkbook reads the mapping workbook at path and returns the validated
// mapping set.
func LoadWorkbook(path string) (*Set, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	have := make(map[string]bool, len(sheets))
	for _, s := range sheets {
		have[s] = true
	}
	for _, s := range requiredSheets {
		if !have[s] {
			return nil, &ConfigError{Section: s, Reason: "required sheet is missing"}
		}
	}

	var doc Document
	if doc.SingleFields, err = readSingleFieldSheet(f); err != nil {
		return nil, err
	}
	if doc.RepoFields, err = readRepoSheet(f); err != nil {
		return nil, err
	}
	if doc.URLEntries, err = readURLSheet(f); err != nil {
		return nil, err
	}
	if doc.ProductFields, err = readProductFieldsSheet(f); err != nil {
		return nil, err
	}
	if doc.Catalog, err = readProductsDataSheet(f); err != nil {
		return nil, err
	}

	return NewSet(doc)
}

// sheetRows reads a sheet into header-keyed row maps. The first row is the
// header; blank rows are skipped.
func sheetRows(f *excelize.File, sheet string) ([]map[string]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, &ConfigError{Section: sheet, Reason: "sheet has no header row"}
	}

	header := rows[0]
	var out []map[string]string
	for _, row := range rows[1:] {
		m := make(map[string]string, len(header))
		empty := true
		for i, h := range header {
			v := ""
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			if v != "" {
				empty = false
			}
			m[strings.TrimSpace(h)] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, &ConfigError{Section: sheet, Reason: "sheet has no data rows"}
	}
	return out, nil
}

func cellBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func readSingleFieldSheet(f *excelize.File) ([]SingleField, error) {
	rows, err := sheetRows(f, "SingleField")
	if err != nil {
		return nil, err
	}
	out := make([]SingleField, 0, len(rows))
	for _, row := range rows {
		out = append(out, SingleField{
			SourceField: row["FS-Field-Key"],
			Custom:      cellBool(row["isCustomFieldFS"]),
			MultiValue:  cellBool(row["isMultiSelectFS"]),
			ValueType:   ValueType(strings.ToLower(row["FS-Field-Type"])),
			TargetField: row["ADO-Field-Key"],
			Direction:   Direction(strings.ToUpper(row["Direction"])),
		})
	}
	return out, nil
}

func readRepoSheet(f *excelize.File) ([]RepoField, error) {
	rows, err := sheetRows(f, "Repo")
	if err != nil {
		return nil, err
	}
	out := make([]RepoField, 0, len(rows))
	for _, row := range rows {
		out = append(out, RepoField{
			SourceField: row["FS-Field-Key"],
			Custom:      cellBool(row["isCustomFieldFS"]),
			MultiValue:  cellBool(row["isMultiSelectFS"]),
			Direction:   Direction(strings.ToUpper(row["Direction"])),
			Title:       row["TitleText"],
		})
	}
	return out, nil
}

func readURLSheet(f *excelize.File) ([]URLEntry, error) {
	rows, err := sheetRows(f, "URL")
	if err != nil {
		return nil, err
	}
	out := make([]URLEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, URLEntry{Key: row["Key"], Value: row["Value"]})
	}
	return out, nil
}

func readProductFieldsSheet(f *excelize.File) ([]ProductField, error) {
	rows, err := sheetRows(f, "ProductsFields")
	if err != nil {
		return nil, err
	}
	out := make([]ProductField, 0, len(rows))
	for _, row := range rows {
		out = append(out, ProductField{
			TargetField: row["ADO-Field-Key"],
			CatalogKey:  row["ProductsDataSheetKey"],
			Direction:   Direction(strings.ToUpper(row["Direction"])),
		})
	}
	return out, nil
}

func readProductsDataSheet(f *excelize.File) ([]CatalogEntry, error) {
	rows, err := sheetRows(f, "ProductsData")
	if err != nil {
		return nil, err
	}
	out := make([]CatalogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, CatalogEntry{
			ProductName:    row["ProductName"],
			ProductVersion: row["ProductVersion"],
			AreaPath:       row["AreaPath"],
			IterationPath:  row["IterationPath"],
			TeamProject:    row["TeamProject"],
			Developer:      row["Developer"],
			Tester:         row["Tester"],
			WorkItemType:   row["WorkItemType"],
			AssignedTo:     row["AssignedTo"],
		})
	}
	return out, nil
}
