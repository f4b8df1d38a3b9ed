// Package corpus reads scan input from files.
//
// A JSONL corpus holds one page object per line. Lines that cannot be decoded
// are reported as skipped pages and never abort the read. A URL list holds
// one URL per line, with # starting a comment. A results file is the JSON
// form of a model.ResultSet as written by a previous scan.
package corpus
