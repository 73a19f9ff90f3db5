// Package query implements the Everything-compatible query language:
// parser, optimizer, path segmenter, segment matcher, evaluator, typed
// filters, and highlight-term deriver. Grounded on
// original_source/search-cache/src/query.rs and segment.rs for exact
// grammar/classification/table semantics.
package query

import "fmt"

// Query wraps the parsed and (after Optimize) rewritten expression tree.
type Query struct {
	Expr Expr
}

// Expr is the sum type over boolean-expression nodes.
type Expr interface {
	isExpr()
}

// Empty matches the universe (whitespace-only input, or an operand left
// blank to preserve source fidelity around "|"/"AND").
type Empty struct{}

// Word is a bareword term.
type Word struct{ Text string }

// Phrase is a quoted term (`"..."`, no escape syntax).
type Phrase struct{ Text string }

// Regex is a `regex:pattern` term evaluated directly against the pool.
type Regex struct{ Pattern string }

// FilterTerm wraps a typed filter as an expression operand.
type FilterTerm struct{ Filter Filter }

// Not negates inner.
type Not struct{ Inner Expr }

// And is a flat conjunction (not a binary tree).
type And struct{ Operands []Expr }

// Or is a flat disjunction.
type Or struct{ Operands []Expr }

func (Empty) isExpr()      {}
func (Word) isExpr()       {}
func (Phrase) isExpr()     {}
func (Regex) isExpr()      {}
func (FilterTerm) isExpr() {}
func (Not) isExpr()        {}
func (And) isExpr()        {}
func (Or) isExpr()         {}

// FilterKind enumerates the filter names recognized by the grammar.
// Names not in this table are parsed into KindCustom.
type FilterKind int

const (
	KindFile FilterKind = iota
	KindFolder
	KindExt
	KindType
	KindAudio
	KindVideo
	KindDoc
	KindExe
	KindSize
	KindDateModified
	KindDateCreated
	KindDateAccessed
	KindDateRun
	KindParent
	KindInFolder
	KindNoSubfolders
	KindChild
	KindAttrib
	KindAttribDupe
	KindDMDupe
	KindDupe
	KindNamePartDupe
	KindSizeDupe
	KindArtist
	KindAlbum
	KindTitle
	KindGenre
	KindYear
	KindTrack
	KindComment
	KindWidth
	KindHeight
	KindDimensions
	KindOrientation
	KindBitDepth
	KindCase
	KindContent
	KindNoWholeFilename
	KindRegexFilter
	KindCustom
)

var filterNames = map[string]FilterKind{
	"file":            KindFile,
	"folder":          KindFolder,
	"ext":             KindExt,
	"type":            KindType,
	"audio":           KindAudio,
	"video":           KindVideo,
	"doc":             KindDoc,
	"exe":             KindExe,
	"size":            KindSize,
	"dm":              KindDateModified,
	"datemodified":    KindDateModified,
	"dc":              KindDateCreated,
	"datecreated":     KindDateCreated,
	"da":              KindDateAccessed,
	"dateaccessed":    KindDateAccessed,
	"dr":              KindDateRun,
	"daterun":         KindDateRun,
	"parent":          KindParent,
	"infolder":        KindInFolder,
	"nosubfolders":    KindNoSubfolders,
	"child":           KindChild,
	"attrib":          KindAttrib,
	"attribdupe":      KindAttribDupe,
	"dmdupe":          KindDMDupe,
	"dupe":            KindDupe,
	"namepartdupe":    KindNamePartDupe,
	"sizedupe":        KindSizeDupe,
	"artist":          KindArtist,
	"album":           KindAlbum,
	"title":           KindTitle,
	"genre":           KindGenre,
	"year":            KindYear,
	"track":           KindTrack,
	"comment":         KindComment,
	"width":           KindWidth,
	"height":          KindHeight,
	"dimensions":      KindDimensions,
	"orientation":     KindOrientation,
	"bitdepth":        KindBitDepth,
	"case":            KindCase,
	"content":         KindContent,
	"nowholefilename": KindNoWholeFilename,
	"regex":           KindRegexFilter,
}

// LookupFilterKind resolves a lowercase filter identifier, returning
// KindCustom (with the original name available to the caller) for
// anything unrecognized.
func LookupFilterKind(name string) FilterKind {
	if k, ok := filterNames[name]; ok {
		return k
	}
	return KindCustom
}

// ArgShape classifies a filter's raw argument text.
type ArgShape int

const (
	ShapeNone ArgShape = iota
	ShapeBare
	ShapePhrase
	ShapeList
	ShapeRange
	ShapeComparison
)

// RangeSeparator distinguishes `..` dot ranges from date `-` hyphen ranges.
type RangeSeparator int

const (
	SepDots RangeSeparator = iota
	SepHyphen
)

// CompareOp is a comparison operator for Comparison-shaped arguments.
type CompareOp int

const (
	OpLE CompareOp = iota
	OpGE
	OpNE
	OpLT
	OpGT
	OpEQ
)

// FilterArgument carries a filter's raw text plus its classified shape.
type FilterArgument struct {
	Raw   string
	Shape ArgShape

	// ShapeList
	List []string

	// ShapeRange
	RangeStart *string
	RangeEnd   *string
	RangeSep   RangeSeparator

	// ShapeComparison
	CompOp    CompareOp
	CompValue string
}

// Filter is a typed predicate term: `kind:argument?`.
type Filter struct {
	Kind       FilterKind
	CustomName string // set only when Kind == KindCustom
	Argument   *FilterArgument
}

func (f Filter) String() string {
	if f.Argument == nil {
		return fmt.Sprintf("Filter(%v)", f.Kind)
	}
	return fmt.Sprintf("Filter(%v:%s)", f.Kind, f.Argument.Raw)
}
