package query

import "strings"

// SizeRange is an inclusive [Min, Max] byte range; a nil bound is open.
type SizeRange struct {
	Min *uint64
	Max *uint64
}

func u64p(v uint64) *uint64 { return &v }

const kb uint64 = 1024
const mb uint64 = 1024 * 1024

// SizeKeyword resolves the `size:` band keywords (spec §4.11). Returns
// false for anything not recognized.
func SizeKeyword(name string) (SizeRange, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "empty":
		return SizeRange{Min: u64p(0), Max: u64p(0)}, true
	case "tiny":
		return SizeRange{Min: u64p(0), Max: u64p(10 * kb)}, true
	case "small":
		return SizeRange{Min: u64p(10*kb + 1), Max: u64p(100 * kb)}, true
	case "medium":
		return SizeRange{Min: u64p(100*kb + 1), Max: u64p(mb)}, true
	case "large":
		return SizeRange{Min: u64p(mb + 1), Max: u64p(16 * mb)}, true
	case "huge":
		return SizeRange{Min: u64p(16*mb + 1), Max: u64p(128 * mb)}, true
	case "gigantic", "giant":
		return SizeRange{Min: u64p(128*mb + 1), Max: nil}, true
	default:
		return SizeRange{}, false
	}
}

// SizeUnitMultiplier resolves a size-literal's unit suffix to a byte
// multiplier. An empty unit means bytes.
func SizeUnitMultiplier(unit string) (uint64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "b", "byte", "bytes":
		return 1, true
	case "k", "kb", "kib", "kilobyte", "kilobytes":
		return 1024, true
	case "m", "mb", "mib", "megabyte", "megabytes":
		return 1024 * 1024, true
	case "g", "gb", "gib", "gigabyte", "gigabytes":
		return 1024 * 1024 * 1024, true
	case "t", "tb", "tib", "terabyte", "terabytes":
		return 1024 * 1024 * 1024 * 1024, true
	case "p", "pb", "pib", "petabyte", "petabytes":
		return 1024 * 1024 * 1024 * 1024 * 1024, true
	default:
		return 0, false
	}
}

// TypeFilterTarget is what a `type:`/macro-filter keyword resolves to:
// either a bare node kind (file/folder) or a fixed extension set.
type TypeFilterTarget struct {
	IsNodeKind bool
	IsDir      bool // valid when IsNodeKind
	Extensions []string
}

// LookupTypeGroup resolves the keyword used by `type:` and by the
// audio/video/doc/exe macro filters (spec §4.11).
func LookupTypeGroup(name string) (TypeFilterTarget, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "file", "files":
		return TypeFilterTarget{IsNodeKind: true, IsDir: false}, true
	case "folder", "folders", "dir", "directory":
		return TypeFilterTarget{IsNodeKind: true, IsDir: true}, true
	case "picture", "pictures", "image", "images", "photo", "photos":
		return TypeFilterTarget{Extensions: pictureExtensions}, true
	case "video", "videos", "movie", "movies":
		return TypeFilterTarget{Extensions: videoExtensions}, true
	case "audio", "audios", "music", "song", "songs":
		return TypeFilterTarget{Extensions: audioExtensions}, true
	case "doc", "docs", "document", "documents", "text", "office":
		return TypeFilterTarget{Extensions: documentExtensions}, true
	case "presentation", "presentations", "ppt", "slides":
		return TypeFilterTarget{Extensions: presentationExtensions}, true
	case "spreadsheet", "spreadsheets", "xls", "excel", "sheet", "sheets":
		return TypeFilterTarget{Extensions: spreadsheetExtensions}, true
	case "pdf":
		return TypeFilterTarget{Extensions: pdfExtensions}, true
	case "archive", "archives", "compressed", "zip":
		return TypeFilterTarget{Extensions: archiveExtensions}, true
	case "code", "source", "dev":
		return TypeFilterTarget{Extensions: codeExtensions}, true
	case "exe", "exec", "executable", "executables", "program", "programs", "app", "apps":
		return TypeFilterTarget{Extensions: executableExtensions}, true
	default:
		return TypeFilterTarget{}, false
	}
}

var pictureExtensions = []string{
	"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp", "ico", "svg", "heic", "heif", "raw",
	"arw", "cr2", "orf", "raf", "psd", "ai",
}
var videoExtensions = []string{
	"mp4", "m4v", "mov", "avi", "mkv", "wmv", "webm", "flv", "mpg", "mpeg", "3gp", "3g2", "ts",
	"mts", "m2ts",
}
var audioExtensions = []string{
	"mp3", "wav", "flac", "aac", "ogg", "oga", "opus", "wma", "m4a", "alac", "aiff",
}
var documentExtensions = []string{
	"txt", "md", "rst", "doc", "docx", "rtf", "odt", "pdf", "pages", "rtfd",
}
var presentationExtensions = []string{"ppt", "pptx", "key", "odp"}
var spreadsheetExtensions = []string{"xls", "xlsx", "csv", "numbers", "ods"}
var pdfExtensions = []string{"pdf"}
var archiveExtensions = []string{
	"zip", "rar", "7z", "tar", "gz", "tgz", "bz2", "xz", "zst", "cab", "iso", "dmg",
}
var codeExtensions = []string{
	"rs", "ts", "tsx", "js", "jsx", "c", "cc", "cpp", "cxx", "h", "hpp", "hh", "java", "cs", "py",
	"go", "rb", "swift", "kt", "kts", "php", "html", "css", "scss", "sass", "less", "json", "yaml",
	"yml", "toml", "ini", "cfg", "sh", "zsh", "fish", "ps1", "psm1", "sql", "lua", "pl", "pm", "r",
	"m", "mm", "dart", "scala", "ex", "exs",
}
var executableExtensions = []string{
	"exe", "msi", "bat", "cmd", "com", "ps1", "psm1", "app", "apk", "ipa", "jar", "bin", "run",
	"pkg",
}

// NormalizeExtension strips a leading '.' and lowercases; returns false
// for an empty result.
func NormalizeExtension(raw string) (string, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), ".")
	if trimmed == "" {
		return "", false
	}
	return strings.ToLower(trimmed), true
}

// ExtensionOf returns the lowercased extension of a file name (text
// after the last '.'), or false if there is none or it is empty.
func ExtensionOf(name string) (string, bool) {
	pos := strings.LastIndexByte(name, '.')
	if pos < 0 || pos+1 >= len(name) {
		return "", false
	}
	return strings.ToLower(name[pos+1:]), true
}

// DateKeywordKind distinguishes the two date-keyword shapes: a fixed
// calendar span (today, thisweek, ...) versus a trailing window from the
// start of the day N days before today through the end of today
// (pastweek, pastmonth, pastyear).
type DateKeywordKind int

const (
	DateKeywordCalendar DateKeywordKind = iota
	DateKeywordTrailing
)

// DateKeywordSpec describes how to compute one date keyword's range.
// Calendar keywords are resolved by the date filter against "today";
// trailing keywords just need TrailingDays.
type DateKeywordSpec struct {
	Kind         DateKeywordKind
	Name         string // one of: today yesterday thisweek lastweek thismonth lastmonth thisyear lastyear
	TrailingDays int
}

var dateKeywords = map[string]DateKeywordSpec{
	"today":     {Kind: DateKeywordCalendar, Name: "today"},
	"yesterday": {Kind: DateKeywordCalendar, Name: "yesterday"},
	"thisweek":  {Kind: DateKeywordCalendar, Name: "thisweek"},
	"lastweek":  {Kind: DateKeywordCalendar, Name: "lastweek"},
	"thismonth": {Kind: DateKeywordCalendar, Name: "thismonth"},
	"lastmonth": {Kind: DateKeywordCalendar, Name: "lastmonth"},
	"thisyear":  {Kind: DateKeywordCalendar, Name: "thisyear"},
	"lastyear":  {Kind: DateKeywordCalendar, Name: "lastyear"},
	"pastweek":  {Kind: DateKeywordTrailing, TrailingDays: 7},
	"pastmonth": {Kind: DateKeywordTrailing, TrailingDays: 30},
	"pastyear":  {Kind: DateKeywordTrailing, TrailingDays: 365},
}

// LookupDateKeyword resolves a `dm:`/`dc:`/`da:`/`dr:` keyword.
func LookupDateKeyword(name string) (DateKeywordSpec, bool) {
	spec, ok := dateKeywords[strings.ToLower(strings.TrimSpace(name))]
	return spec, ok
}
