package plagiarism

import (
	"fmt"
	"regexp"
	"strings"
)

// Lexicon carries the language specific pieces of normalization: comment
// syntax and the words that must never be renamed.
type Lexicon struct {
	Name string
	// LineComment starts a comment running to end of line
	LineComment string
	// BlockComments are open/close delimiter pairs, matched non-greedily across lines
	BlockComments [][2]string
	// Reserved holds keywords and builtins excluded from identifier renaming
	Reserved map[string]struct{}
}

var pythonLexicon = NewLexicon("python", "#", [][2]string{{`"""`, `"""`}, {`'''`, `'''`}},
	"def", "class", "import", "from", "if", "else", "elif", "for", "while",
	"return", "try", "except", "finally", "with", "as", "break", "continue",
	"pass", "raise", "assert", "yield", "lambda", "True", "False", "None",
	"and", "or", "not", "in", "is", "print", "range", "len", "str", "int",
	"float", "list", "dict", "set", "tuple", "open", "file",
)

var clikeLexicon = NewLexicon("clike", "//", [][2]string{{"/*", "*/"}},
	"if", "else", "for", "while", "do", "switch", "case", "default", "break",
	"continue", "return", "goto", "struct", "class", "enum", "union", "typedef",
	"const", "static", "void", "int", "long", "short", "char", "float", "double",
	"bool", "true", "false", "null", "NULL", "new", "delete", "this", "public",
	"private", "protected", "import", "package", "function", "var", "let",
	"try", "catch", "finally", "throw", "include", "printf", "main", "string",
)

var lexicons = map[string]*Lexicon{
	"python":     pythonLexicon,
	"clike":      clikeLexicon,
	"c":          clikeLexicon,
	"cpp":        clikeLexicon,
	"java":       clikeLexicon,
	"javascript": clikeLexicon,
}

func NewLexicon(name, lineComment string, blocks [][2]string, reserved ...string) *Lexicon {
	set := make(map[string]struct{}, len(reserved))
	for _, word := range reserved {
		set[word] = struct{}{}
	}
	return &Lexicon{
		Name:          name,
		LineComment:   lineComment,
		BlockComments: blocks,
		Reserved:      set,
	}
}

// PythonLexicon is the default lexicon for notebook code
func PythonLexicon() *Lexicon { return pythonLexicon }

// LookupLexicon returns a built-in lexicon by language name
func LookupLexicon(language string) (*Lexicon, error) {
	lex, ok := lexicons[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", language)
	}
	return lex, nil
}

func (l *Lexicon) IsReserved(word string) bool {
	_, ok := l.Reserved[word]
	return ok
}

// commentPatterns compiles the lexicon's comment syntax in removal order:
// line comments first, then each block delimiter pair.
func (l *Lexicon) commentPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(l.BlockComments)+1)
	if l.LineComment != "" {
		patterns = append(patterns, regexp.MustCompile(`(?m)`+regexp.QuoteMeta(l.LineComment)+`.*$`))
	}
	for _, pair := range l.BlockComments {
		patterns = append(patterns, regexp.MustCompile(`(?s)`+regexp.QuoteMeta(pair[0])+`.*?`+regexp.QuoteMeta(pair[1])))
	}
	return patterns
}
