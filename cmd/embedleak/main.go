// Package main provides the entry point for the embedleak CLI.
//
// embedleak finds pages whose rendered output leaks raw embed markup, such as
// unprocessed media tokens of a CMS. It synthesizes detection patterns from
// one confirmed example, scans a corpus of pages, and triages the affected
// pages by URL shape.
//
// Usage:
//
//	embedleak synthesize --seed-file seed.txt
//	embedleak scan --seed-file seed.txt --corpus pages.jsonl
//	embedleak triage results.json
//
// See --help for all available options.
package main

func main() {
	Execute()
}
