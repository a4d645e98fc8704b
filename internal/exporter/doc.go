// Package exporter writes analysis snapshots to CSV and XLSX.
//
// WindowTable flattens the samples of a burn window into columns, and
// Table.WriteCSV streams them with a UTF-8 BOM so Excel recognises the
// encoding. WriteWorkbook produces the Metrics, Window and Statistics
// sheets. WriteFile puts either on disk atomically:
//
//	table, err := exporter.WindowTable(state, true)
//	if err != nil {
//		return err
//	}
//	err = exporter.WriteFile("run42_window.csv", table.WriteCSV)
package exporter
