package shipment

// DefaultIncoterm is applied when a shipment is created without one.
const DefaultIncoterm = "FOB"

// Incoterms is the closed set of accepted trade terms (Incoterms 2020).
var Incoterms = []string{
	"EXW", "FCA", "FAS", "FOB", "CFR", "CIF", "CPT", "CIP", "DAP", "DPU", "DDP",
}

// IsValidIncoterm reports whether term belongs to the accepted set.
func IsValidIncoterm(term string) bool {
	for _, t := range Incoterms {
		if t == term {
			return true
		}
	}
	return false
}
