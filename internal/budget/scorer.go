package budget

import (
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"
)

// Scoring building blocks shared by the per-domain priority scorers.
// A domain scorer combines these into a pure score function; combined with
// its declared tie-break key the ranking is a strict total order.

// Visibility and kind weights. Public symbols outrank internal ones,
// containers outrank leaves.
const (
	VisibilityPublicWeight    = 300
	VisibilityInternalWeight  = 200
	VisibilityProtectedWeight = 150
	VisibilityPrivateWeight   = 100

	ContainerKindWeight = 150
	LeafKindWeight      = 50

	// GeneratedPathPenalty pushes low-signal generated/boilerplate files
	// to the truncation edge.
	GeneratedPathPenalty = -250

	// structureEdgeWeight scores each fan-in/out edge or child, capped by
	// structureWeightCap so one mega-hub cannot drown out everything else.
	structureEdgeWeight = 5
	structureWeightCap  = 100

	// nameSimilarityWeight scales Jaro-Winkler similarity (0..1) into the
	// score space.
	nameSimilarityWeight = 100

	// termOverlapWeight scores each stemmed query term found in a name.
	termOverlapWeight = 20
)

// VisibilityWeight maps a declared visibility to its score contribution.
// Unknown visibilities score as private.
func VisibilityWeight(visibility string) int {
	switch strings.ToLower(visibility) {
	case "public":
		return VisibilityPublicWeight
	case "internal":
		return VisibilityInternalWeight
	case "protected":
		return VisibilityProtectedWeight
	default:
		return VisibilityPrivateWeight
	}
}

// containerKinds are symbol kinds that contain other symbols.
var containerKinds = map[string]struct{}{
	"class": {}, "struct": {}, "interface": {}, "enum": {},
	"namespace": {}, "module": {}, "type": {},
}

// KindWeight scores containers above leaves.
func KindWeight(kind string) int {
	if _, ok := containerKinds[strings.ToLower(kind)]; ok {
		return ContainerKindWeight
	}
	return LeafKindWeight
}

// StructureWeight scores structural richness: fan-in, fan-out and child
// count, capped per dimension.
func StructureWeight(fanIn, fanOut, children int) int {
	return cappedEdges(fanIn) + cappedEdges(fanOut) + cappedEdges(children)
}

func cappedEdges(n int) int {
	if n < 0 {
		n = 0
	}
	w := n * structureEdgeWeight
	if w > structureWeightCap {
		return structureWeightCap
	}
	return w
}

// NameSimilarity scores how closely candidate matches the query symbol
// using Jaro-Winkler similarity, which performs well for short identifier
// strings. Empty inputs or comparison failures score 0.
func NameSimilarity(query, candidate string) int {
	if query == "" || candidate == "" {
		return 0
	}
	sim, err := edlib.StringsSimilarity(strings.ToLower(query), strings.ToLower(candidate), edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return int(sim * nameSimilarityWeight)
}

// TermOverlap scores the stemmed-term overlap between a query and an
// identifier: both are split on case and separator boundaries, stemmed,
// and each shared stem adds a fixed weight.
func TermOverlap(query, candidate string) int {
	queryStems := stemSet(query)
	if len(queryStems) == 0 {
		return 0
	}
	score := 0
	for _, part := range SplitIdentifier(candidate) {
		if _, ok := queryStems[porter2.Stem(part)]; ok {
			score += termOverlapWeight
		}
	}
	return score
}

func stemSet(s string) map[string]struct{} {
	parts := SplitIdentifier(s)
	if len(parts) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		set[porter2.Stem(p)] = struct{}{}
	}
	return set
}

// SplitIdentifier breaks an identifier into lowercase words on camelCase,
// snake_case, kebab-case, dot and path boundaries.
func SplitIdentifier(s string) []string {
	var parts []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == '/' || r == '\\' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			// Boundary before an upper rune that follows a lower rune, or
			// starts a new word after an acronym run (e.g. HTTPServer).
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				flush()
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return parts
}

// PathPenalty returns GeneratedPathPenalty when the path matches any of
// the configured low-signal glob patterns (generated files, migrations,
// designer output). Invalid patterns are skipped rather than failing the
// score: scoring must stay pure and total.
func PathPenalty(path string, patterns []string) int {
	if path == "" || len(patterns) == 0 {
		return 0
	}
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, normalized)
		if err != nil {
			continue
		}
		if ok {
			return GeneratedPathPenalty
		}
	}
	return 0
}
