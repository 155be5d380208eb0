// Package main provides the fairscrape command.
//
// fairscrape collects the Leipzig Book Fair 2026 exhibitor directory and
// writes one spreadsheet row per exhibitor.
//
// Usage:
//
//	fairscrape run
//	fairscrape run --test
//	fairscrape run --db progress.db --resume
//	fairscrape serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
