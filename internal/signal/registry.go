package signal

// Parsers is the fixed roster of concrete channel parsers this engine
// ships with. New channels are added here without touching the engine,
// which only ever depends on the Parser function type.
var Parsers = map[string]Parser{
	"RESULTS": ParseResults,
	"BFP":     ParseBFP,
	"MCVIP":   ParseMCVIP,
	"MVIP":    ParseMVIP,
	"CCS":     ParseCCS,
	"TCA":     ParseTCA,
	"CY":      ParseCY,
	"KBV":     ParseKBV,
}
