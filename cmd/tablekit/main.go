// Command tablekit runs table-cleaning recipes: it loads a CSV or XLSX
// dataset under its column contract, applies the configured transform steps
// in order, and delivers the result to export, materialize and snapshot
// sinks.
package main

import (
	// register all backends with the storage factory. Recipes select one by
	// kind at runtime, so the binary carries support for all of them.
	_ "tablekit/internal/storage/all"
)

func main() {
	Execute()
}
