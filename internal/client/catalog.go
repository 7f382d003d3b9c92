package client

// DetectionEntry describes one analysis heuristic in the client-side
// catalog. It mirrors the backend's detector registry without importing
// backend packages.
type DetectionEntry struct {
	Type            DetectionType
	Name            string
	Summary         string
	DefaultSeverity Severity
	Reference       Reference
}

// DetectionTypes lists the four heuristics in display order.
var DetectionTypes = []DetectionType{
	DetectTimelockMixing,
	DetectShortCLTVDelta,
	DetectHTLCClustering,
	DetectAnomalousSequence,
}

// Catalog returns the static detection-type list used for scan filters and
// detail rendering.
func Catalog() []DetectionEntry {
	return []DetectionEntry{
		{
			Type:            DetectTimelockMixing,
			Name:            "Timelock Mixing",
			Summary:         "Absolute nLockTime combined with relative sequence locks in one transaction, a fingerprint that weakens privacy and can break settlement assumptions.",
			DefaultSeverity: SeverityWarning,
			Reference: Reference{
				Name:    "Bitcoin Transaction Fingerprinting",
				Authors: "Scharnowski, Klein",
				Year:    2021,
			},
		},
		{
			Type:            DetectShortCLTVDelta,
			Name:            "Short CLTV Delta",
			Summary:         "An HTLC whose CLTV expiry is dangerously close to the current tip, leaving too little time to enforce the timeout path on-chain.",
			DefaultSeverity: SeverityCritical,
			Reference: Reference{
				Name:    "Flood & Loot: A Systemic Attack on the Lightning Network",
				Authors: "Harris, Zohar",
				Year:    2020,
			},
		},
		{
			Type:            DetectHTLCClustering,
			Name:            "HTLC Clustering",
			Summary:         "Many HTLC timeouts expiring in a narrow height window, consistent with a coordinated channel-draining attempt.",
			DefaultSeverity: SeverityWarning,
			Reference: Reference{
				Name:    "Congestion Attacks in Payment Channel Networks",
				Authors: "Mizrahi, Zohar",
				Year:    2021,
			},
		},
		{
			Type:            DetectAnomalousSequence,
			Name:            "Anomalous Sequence",
			Summary:         "nSequence values outside the patterns produced by known wallet and channel software.",
			DefaultSeverity: SeverityInformational,
			Reference: Reference{
				Name:    "BIP 68: Relative lock-time using consensus-enforced sequence numbers",
				Authors: "Friedenbach, BtcDrak, Dorier, kinoshitajona",
				Year:    2015,
			},
		},
	}
}

// LookupDetection returns the catalog entry for t, if known.
func LookupDetection(t DetectionType) (DetectionEntry, bool) {
	for _, e := range Catalog() {
		if e.Type == t {
			return e, true
		}
	}
	return DetectionEntry{}, false
}
