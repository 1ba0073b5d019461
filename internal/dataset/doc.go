// Package dataset reads the dropout workbook and turns it into region
// records and feature matrices.
//
// Load returns the raw worksheet untouched. Preprocess keeps the rows at
// the configured granularity (regencies and cities by default) and maps
// the source columns onto the canonical Daerah, SD, SMP, SMA and SMK
// fields:
//
//	table, err := dataset.Load("jumlah-siswa-putus-sekolah-updated.xlsx", "Sheet1")
//	if err != nil {
//	    return err
//	}
//	records, err := dataset.Preprocess(table, dataset.DefaultSchema())
//
// A source that cannot be opened yields a DATA_SOURCE error, absent
// columns or malformed count cells a SCHEMA error.
package dataset
