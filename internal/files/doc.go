// Package files discovers the yearly source files of a merge run.
//
// Discovery scans the input directory once and sorts each file with a
// recognized extension (.sav, .xlsx) into a dataset category by substring
// match on its name. Rules are tried in priority order, so a name that
// contains two category strings belongs to the first. Every classified file
// carries the year found in its name, or the configured sentinel.
//
// Example usage:
//
//	discovery := files.NewDiscovery("", cfg.Merge, logger)
//	classification, err := discovery.Classify(ctx, "./data")
//	for _, category := range classification.Categories {
//	    for _, f := range classification.Get(category) {
//	        fmt.Println(f.Name, f.Year)
//	    }
//	}
package files
