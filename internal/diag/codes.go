package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexUnterminatedChar         Code = 1004
	LexUnterminatedHeaderName   Code = 1005

	// Препроцессор
	PPFileNotFound           Code = 2001
	PPInvalidDirective       Code = 2002
	PPMacroNameMissing       Code = 2003
	PPMacroNameNotIdentifier Code = 2004
	PPUnterminatedCond       Code = 2005
	PPUnmatchedEndif         Code = 2006
	PPUnmatchedElse          Code = 2007
	PPErrorDirective         Code = 2008
	PPWarningDirective       Code = 2009
	PPExtraTokens            Code = 2010
	PPIncludeTooDeep         Code = 2011
	PPExpectedFilename       Code = 2012
	PPMacroArgsUnterminated  Code = 2013
	PPInvalidCondExpr        Code = 2014
	PPPragmaOnceInMainFile   Code = 2015

	// Парсер
	SynExpectedToken      Code = 3001
	SynExpectedExpression Code = 3002
	SynExpectedDecl       Code = 3003
	SynExpectedStatement  Code = 3004
	SynUnbalancedBrace    Code = 3005
	SynMissingObjCEnd     Code = 3006

	// Семантика
	SemaUndeclaredIdentifier Code = 4001
	SemaUnknownTypeName      Code = 4002
	SemaRedefinition         Code = 4003
	SemaUnusedVariable       Code = 4004
	SemaPreviousDefinition   Code = 4005
	SemaNotATemplate         Code = 4006
	SemaUndeclaredFunction   Code = 4007
	SemaLabelNotFound        Code = 4008

	// Разбор командной строки
	DrvUnknownArgument Code = 5001
	DrvMissingArgument Code = 5002
	DrvInvalidStd      Code = 5003

	// CustomBase is the first code handed out by Engine.CustomCode.
	CustomBase Code = 9000
)

type codeInfo struct {
	name   string   // стабильное машинное имя (как у clang diagnostic ids)
	sev    Severity // уровень по умолчанию
	format string   // fmt шаблон сообщения
	flag   string   // имя -W флага для предупреждений
}

var codeTable = map[Code]codeInfo{
	UnknownCode: {"unknown", SevError, "unknown diagnostic", ""},

	LexUnknownChar:              {"err_lex_unknown_char", SevError, "invalid character %q", ""},
	LexUnterminatedString:       {"err_unterminated_string", SevError, "missing terminating '\"' character", ""},
	LexUnterminatedBlockComment: {"err_unterminated_block_comment", SevError, "unterminated /* comment", ""},
	LexUnterminatedChar:         {"err_unterminated_char", SevError, "missing terminating ' character", ""},
	LexUnterminatedHeaderName:   {"err_pp_expects_filename", SevError, "expected '>'", ""},

	PPFileNotFound:           {"err_pp_file_not_found", SevError, "'%s' file not found", ""},
	PPInvalidDirective:       {"err_pp_invalid_directive", SevError, "invalid preprocessing directive", ""},
	PPMacroNameMissing:       {"err_pp_macro_name_missing", SevError, "macro name missing", ""},
	PPMacroNameNotIdentifier: {"err_pp_macro_not_identifier", SevError, "macro name must be an identifier", ""},
	PPUnterminatedCond:       {"err_pp_unterminated_conditional", SevError, "unterminated conditional directive", ""},
	PPUnmatchedEndif:         {"err_pp_endif_without_if", SevError, "#%s without #if", ""},
	PPUnmatchedElse:          {"err_pp_else_after_else", SevError, "#%s after #else", ""},
	PPErrorDirective:         {"err_pp_hash_error", SevError, "%s", ""},
	PPWarningDirective:       {"pp_hash_warning", SevWarning, "%s", "#warnings"},
	PPExtraTokens:            {"ext_pp_extra_tokens_at_eol", SevWarning, "extra tokens at end of #%s directive", "extra-tokens"},
	PPIncludeTooDeep:         {"err_pp_include_too_deep", SevFatal, "#include nested too deeply", ""},
	PPExpectedFilename:       {"err_pp_expects_filename", SevError, "expected \"FILENAME\" or <FILENAME>", ""},
	PPMacroArgsUnterminated:  {"err_unterm_macro_invoc", SevError, "unterminated function-like macro invocation", ""},
	PPInvalidCondExpr:        {"err_pp_expected_value_in_expr", SevError, "expected value in expression", ""},
	PPPragmaOnceInMainFile:   {"pp_pragma_once_in_main_file", SevWarning, "#pragma once in main file", "pragma-once-outside-header"},

	SynExpectedToken:      {"err_expected", SevError, "expected '%s'", ""},
	SynExpectedExpression: {"err_expected_expression", SevError, "expected expression", ""},
	SynExpectedDecl:       {"err_expected_external_declaration", SevError, "expected external declaration", ""},
	SynExpectedStatement:  {"err_expected_statement", SevError, "expected statement", ""},
	SynUnbalancedBrace:    {"err_extraneous_closing_brace", SevError, "extraneous closing brace ('}')", ""},
	SynMissingObjCEnd:     {"err_objc_missing_end", SevError, "missing '@end'", ""},

	SemaUndeclaredIdentifier: {"err_undeclared_var_use", SevError, "use of undeclared identifier '%s'", ""},
	SemaUnknownTypeName:      {"err_unknown_typename", SevError, "unknown type name '%s'", ""},
	SemaRedefinition:         {"err_redefinition", SevError, "redefinition of '%s'", ""},
	SemaUnusedVariable:       {"warn_unused_variable", SevWarning, "unused variable '%s'", "unused-variable"},
	SemaPreviousDefinition:   {"note_previous_definition", SevNote, "previous definition is here", ""},
	SemaNotATemplate:         {"err_template_missing_args", SevError, "'%s' is not a template", ""},
	SemaUndeclaredFunction:   {"err_undeclared_use_suggest", SevError, "use of undeclared identifier '%s'", ""},
	SemaLabelNotFound:        {"err_undeclared_label_use", SevError, "use of undeclared label '%s'", ""},

	DrvUnknownArgument: {"err_drv_unknown_argument", SevError, "unknown argument: '%s'", ""},
	DrvMissingArgument: {"err_drv_missing_argument", SevError, "argument to '%s' is missing (expected 1 value)", ""},
	DrvInvalidStd:      {"err_drv_invalid_value", SevError, "invalid value '%s' in '-std='", ""},
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("PP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("DRV%04d", ic)
	case ic >= int(CustomBase):
		return fmt.Sprintf("CUS%04d", ic)
	}
	return "E0000"
}

// Name is the stable machine name of a static code ("err_undeclared_var_use").
func (c Code) Name() string {
	if info, ok := codeTable[c]; ok {
		return info.name
	}
	return ""
}

// Title returns the message template of a static code.
func (c Code) Title() string {
	info, ok := codeTable[c]
	if !ok {
		return codeTable[UnknownCode].format
	}
	return info.format
}

// WarningFlag is the -W option controlling a warning ("unused-variable"), or "".
func (c Code) WarningFlag() string {
	return codeTable[c].flag
}

// IsCustom reports whether the code was allocated at runtime (checks).
func (c Code) IsCustom() bool {
	return c >= CustomBase
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
