package assets

// classDict maps S-57/CM93 object-class acronyms to the compact integer
// codes the tile renderer substitutes for OBJL strings, extended with
// the navaid/CBLARE/PIPARE classes beyond the core S-52 object set.
var classDict = map[string]int{
	"LNDARE": 1,
	"DEPARE": 2,
	"DEPCNT": 3,
	"COALNE": 4,
	"SOUNDG": 5,
	"OBSTRN": 6,
	"WRECKS": 7,
	"UWTROC": 8,
	"ROCKS":  9,
	"LIGHTS": 10,
	"BCNLAT": 11,
	"BCNSPP": 12,
	"BOYLAT": 13,
	"BOYSPP": 14,
	"CBLARE": 15,
	"PIPARE": 16,
}

// ClassCode returns the compact integer code for objl, and whether it
// is a recognised class.
func ClassCode(objl string) (int, bool) {
	code, ok := classDict[objl]
	return code, ok
}

// ClassDict returns a copy of the full OBJL -> code mapping, served
// verbatim at /tiles/cm93/dict.json.
func ClassDict() map[string]int {
	out := make(map[string]int, len(classDict))
	for k, v := range classDict {
		out[k] = v
	}
	return out
}
