package token

var keywords = map[string]Kind{
	"auto":     KwAuto,
	"bool":     KwBool,
	"break":    KwBreak,
	"char":     KwChar,
	"class":    KwClass,
	"const":    KwConst,
	"continue": KwContinue,
	"double":   KwDouble,
	"else":     KwElse,
	"extern":   KwExtern,
	"false":    KwFalse,
	"float":    KwFloat,
	"for":      KwFor,
	"goto":     KwGoto,
	"if":       KwIf,
	"inline":   KwInline,
	"int":      KwInt,
	"long":     KwLong,
	"nullptr":  KwNullptr,
	"return":   KwReturn,
	"short":    KwShort,
	"signed":   KwSigned,
	"sizeof":   KwSizeof,
	"static":   KwStatic,
	"struct":   KwStruct,
	"template": KwTemplate,
	"true":     KwTrue,
	"typedef":  KwTypedef,
	"typename": KwTypename,
	"union":    KwUnion,
	"unsigned": KwUnsigned,
	"void":     KwVoid,
	"volatile": KwVolatile,
	"while":    KwWhile,
}

var keywordSpelling = func() map[Kind]string {
	m := make(map[Kind]string, len(keywords))
	for s, k := range keywords {
		m[k] = s
	}
	return m
}()

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
