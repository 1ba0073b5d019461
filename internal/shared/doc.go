// Package shared holds code used across the dashboard packages that
// belongs to no single layer.
//
// The testutil subpackage provides the captured slog handler and the
// dropout workbook fixtures the package tests build on:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    path := testutil.WriteWorkbook(t, testutil.SampleRows())
//	    ...
//	    testutil.AssertNoErrors(t, handler)
//	}
package shared
