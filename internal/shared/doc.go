// Package shared holds helpers used across the merger packages that belong
// to no single stage.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger for asserting on structured logs
//   - WriteWorkbook for building .xlsx fixtures
//   - WriteInputDir, a small input directory with readable, unreadable and
//     ignored files
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    dir := testutil.WriteInputDir(t)
//
//	    // run code under test with logger and dir
//	    testutil.AssertNoErrors(t, handler)
//	}
package shared
