package intent

// Commodity keyword to HS4 code mapping used by both the heuristic
// extractor and the SQL builder's HS fallback.
var HSCodeMap = map[string][]string{
	"нүүрс":      {"2701", "2702"},
	"зэс":        {"2603"},
	"төмөр":      {"2601"},
	"газрын тос": {"2709"},
}

// Category keyword to view column mapping (category view variants). These
// take absolute precedence over HS-code inference so a phrase like
// "суудлын автомашин" never degrades into a spurious numeric HS match.
var CategoryKeywords = map[string]string{
	"тамхи":                    "sub3",
	"суудлын автомашин":        "sub3",
	"хүнс":                     "sub2",
	"автобензин":               "sub2",
	"түргэн эдэлгээтэй":        "sub1",
	"хэрэглээний бүтээгдэхүүн": "purpose",
}

// HSLabelMap attaches a human label to known HS4 codes when building a
// commodity record from a merged intent.
var HSLabelMap = map[string]string{
	"2701": "нүүрс",
	"2702": "лигнит",
	"2603": "зэс",
	"2601": "төмөр",
	"2709": "газрын тос",
}

// CategoryFields are the filter keys served by the category view variants.
var CategoryFields = []string{"purpose", "sub1", "sub2", "sub3"}
