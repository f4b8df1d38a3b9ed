// Package scan applies a synthesized pattern set to page content.
//
// A Scanner first runs one Aho-Corasick pass over the case-folded content to
// find which pattern anchors occur, then runs only the patterns whose anchors
// are all present. A page with no match produces no PageResult.
package scan
