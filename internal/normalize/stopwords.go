package normalize

// stopwords are high-frequency German and Latin function words plus
// catalog boilerplate (volume/part designations, bookseller phrases)
// that carry no discriminating power in 16th-18th century imprints.
var stopwords = map[string]struct{}{
	"der": {}, "die": {}, "das": {}, "und": {}, "oder": {}, "von": {},
	"zu": {}, "im": {}, "in": {}, "an": {}, "auf": {},
	"herrn": {}, "herr": {}, "georgii": {}, "georg": {}, "joh": {},
	"jac": {}, "et": {}, "cum": {}, "de": {},
	"opus": {}, "tomus": {}, "pars": {}, "liber": {}, "tractatus": {},
	"dissertatio": {}, "vol": {}, "cap": {}, "tit": {}, "pag": {},
	"etc": {}, "bey": {}, "buchhändler": {}, "allhier": {}, "haben": {},
	"sind": {}, "ist": {},
	"eine": {}, "einer": {}, "ein": {}, "neue": {}, "mr": {}, "mr-": {},
	"aus": {}, "dem": {}, "den": {}, "des": {},
	"stuck": {}, "stück": {}, "item": {}, "theil": {}, "band": {},
	"bände": {}, "über": {}, "gegen": {}, "nach": {},
}

// IsStopword reports whether the (lowercased) token is a stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}
