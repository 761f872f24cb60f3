package curation

import "strings"

// DefaultSourceWeight applies to sources absent from the reputation table.
const DefaultSourceWeight = 5

// SourceWeight maps a source-name fragment to a credibility weight.
type SourceWeight struct {
	Match  string
	Weight int
}

// CredibilityTable is ordered: the first fragment contained in the source name wins.
type CredibilityTable []SourceWeight

var sourceCredibility = CredibilityTable{
	{Match: "arxiv", Weight: 10},
	{Match: "mit tech", Weight: 9},
	{Match: "mit technology review", Weight: 9},
	{Match: "nature", Weight: 9},
	{Match: "science", Weight: 9},
	{Match: "techcrunch", Weight: 7},
	{Match: "venturebeat", Weight: 7},
	{Match: "wired", Weight: 7},
	{Match: "ai news", Weight: 6},
}

// SourceCredibility scores a feed name against the built-in reputation table.
func SourceCredibility(source string) int {
	return sourceCredibility.Weight(source)
}

// Weight returns the weight of the first matching entry or DefaultSourceWeight.
func (t CredibilityTable) Weight(source string) int {
	name := strings.ToLower(source)
	for _, entry := range t {
		if strings.Contains(name, entry.Match) {
			return entry.Weight
		}
	}
	return DefaultSourceWeight
}
