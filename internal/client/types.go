// Package client provides HTTP and event-stream clients for the timelock
// analysis backend. Types mirror the backend wire contract without importing
// backend packages.
package client

import "encoding/json"

// Severity grades an alert.
type Severity string

const (
	SeverityCritical      Severity = "critical"
	SeverityWarning       Severity = "warning"
	SeverityInformational Severity = "informational"
)

// Rank orders severities for comparison: critical > warning > informational.
// Unknown severities rank below informational.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInformational:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the known severity grades.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// DetectionType identifies which analysis heuristic raised an alert.
type DetectionType string

const (
	DetectTimelockMixing    DetectionType = "timelock_mixing"
	DetectShortCLTVDelta    DetectionType = "short_cltv_delta"
	DetectHTLCClustering    DetectionType = "htlc_clustering"
	DetectAnomalousSequence DetectionType = "anomalous_sequence"
)

// LocktimeKind describes how a transaction's nLockTime is interpreted.
type LocktimeKind string

const (
	LocktimeNone   LocktimeKind = "none"
	LocktimeHeight LocktimeKind = "height"
	LocktimeTime   LocktimeKind = "time"
)

// Locktime is the decoded transaction-level nLockTime.
type Locktime struct {
	Value  uint32       `json:"value"`
	Kind   LocktimeKind `json:"kind"`
	Active bool         `json:"active"`
}

// RelativeLock is a decoded per-input relative timelock (BIP 68).
type RelativeLock struct {
	Kind   string `json:"kind"` // "blocks" or "time"
	Value  uint32 `json:"value"`
	Active bool   `json:"active"`
}

// InputLock is the per-input sequence analysis.
type InputLock struct {
	Index        int           `json:"index"`
	Sequence     uint32        `json:"sequence"`
	RBFSignaling bool          `json:"rbf_signaling"`
	Relative     *RelativeLock `json:"relative,omitempty"`
}

// TimelockInfo is the backend's timelock analysis for one transaction.
type TimelockInfo struct {
	Locktime  Locktime    `json:"locktime"`
	Inputs    []InputLock `json:"inputs"`
	AnyActive bool        `json:"any_active"`
}

// Classification labels a transaction's Lightning role.
type Classification string

const (
	ClassNone        Classification = "none"
	ClassCommitment  Classification = "commitment"
	ClassHTLCTimeout Classification = "htlc_timeout"
	ClassHTLCSuccess Classification = "htlc_success"
)

// LightningInfo is the backend's Lightning classification for one transaction.
type LightningInfo struct {
	Classification Classification `json:"classification"`
	Confidence     float64        `json:"confidence,omitempty"`
	CLTVExpiry     *uint32        `json:"cltv_expiry,omitempty"`
	ToSelfDelay    *uint32        `json:"to_self_delay,omitempty"`
	AnchorOutputs  bool           `json:"anchor_outputs,omitempty"`
}

// Reference cites the research an alert's heuristic is based on.
type Reference struct {
	Name    string `json:"name"`
	Authors string `json:"authors"`
	Year    int    `json:"year"`
	URL     string `json:"url"`
}

// Alert is one finding raised by the backend. Details carries the
// type-specific fields, keyed by DetectionType.
type Alert struct {
	ID            string          `json:"id"`
	Severity      Severity        `json:"severity"`
	DetectionType DetectionType   `json:"detection_type"`
	Txid          string          `json:"txid"`
	InputIndex    *int            `json:"input_index"`
	Description   string          `json:"description"`
	Details       json.RawMessage `json:"details,omitempty"`
	Reference     *Reference      `json:"reference"`
}

// MixingDetails accompanies timelock_mixing alerts.
type MixingDetails struct {
	Locktime      uint32       `json:"locktime"`
	LocktimeKind  LocktimeKind `json:"locktime_kind"`
	SequenceLocks int          `json:"sequence_locks"`
}

// CLTVDeltaDetails accompanies short_cltv_delta alerts.
type CLTVDeltaDetails struct {
	CLTVExpiry uint32 `json:"cltv_expiry"`
	CurrentTip int64  `json:"current_tip"`
	Delta      int64  `json:"delta"`
	Threshold  int64  `json:"threshold"`
}

// ClusteringDetails accompanies htlc_clustering alerts.
type ClusteringDetails struct {
	HTLCCount   int   `json:"htlc_count"`
	ClusterSize int   `json:"cluster_size"`
	WindowStart int64 `json:"window_start"`
	WindowEnd   int64 `json:"window_end"`
}

// SequenceDetails accompanies anomalous_sequence alerts.
type SequenceDetails struct {
	Sequence uint32 `json:"sequence"`
	Observed int    `json:"observed"`
	Expected string `json:"expected"`
}

// DecodeDetails unpacks the alert's Details variant into the struct matching
// its detection type. Returns nil when there are no details to decode.
func (a Alert) DecodeDetails() (any, error) {
	if len(a.Details) == 0 {
		return nil, nil
	}
	var out any
	switch a.DetectionType {
	case DetectTimelockMixing:
		out = &MixingDetails{}
	case DetectShortCLTVDelta:
		out = &CLTVDeltaDetails{}
	case DetectHTLCClustering:
		out = &ClusteringDetails{}
	case DetectAnomalousSequence:
		out = &SequenceDetails{}
	default:
		return nil, nil
	}
	if err := json.Unmarshal(a.Details, out); err != nil {
		return nil, err
	}
	return out, nil
}

// TxReport is the full analysis of one transaction. It is both the
// /api/tx response shape and the payload of each monitor stream event.
type TxReport struct {
	Txid      string        `json:"txid"`
	Timelock  TimelockInfo  `json:"timelock"`
	Lightning LightningInfo `json:"lightning"`
	Alerts    []Alert       `json:"alerts"`
}

// MaxSeverity returns the highest alert severity on the report. The second
// return is false when the report carries no alerts.
func (r TxReport) MaxSeverity() (Severity, bool) {
	if len(r.Alerts) == 0 {
		return "", false
	}
	max := r.Alerts[0].Severity
	for _, a := range r.Alerts[1:] {
		if a.Severity.Rank() > max.Rank() {
			max = a.Severity
		}
	}
	return max, true
}

// ActiveTimelock reports whether the timelock analysis found any lock that
// is currently enforced.
func (r TxReport) ActiveTimelock() bool {
	return r.Timelock.AnyActive
}

// BlockResult is the /api/block response.
type BlockResult struct {
	Height               int64      `json:"height"`
	TotalTransactions    int        `json:"total_transactions"`
	ReturnedTransactions int        `json:"returned_transactions"`
	Transactions         []TxReport `json:"transactions"`
}

// ScanResult is the /api/scan response.
type ScanResult struct {
	StartHeight int64   `json:"start_height"`
	EndHeight   int64   `json:"end_height"`
	CurrentTip  int64   `json:"current_tip"`
	TotalAlerts int     `json:"total_alerts"`
	Alerts      []Alert `json:"alerts"`
}

// LightningTx is one classified transaction in the Lightning dashboard.
type LightningTx struct {
	Txid           string         `json:"txid"`
	BlockHeight    int64          `json:"block_height"`
	Classification Classification `json:"classification"`
	CLTVExpiry     *uint32        `json:"cltv_expiry,omitempty"`
}

// CLTVBucket is one bar of the CLTV expiry distribution.
type CLTVBucket struct {
	Expiry int64 `json:"expiry"`
	Count  int   `json:"count"`
}

// LightningResult is the /api/lightning response.
type LightningResult struct {
	StartHeight              int64         `json:"start_height"`
	EndHeight                int64         `json:"end_height"`
	TotalTransactionsScanned int           `json:"total_transactions_scanned"`
	Commitments              int           `json:"commitments"`
	HTLCTimeouts             int           `json:"htlc_timeouts"`
	HTLCSuccesses            int           `json:"htlc_successes"`
	Transactions             []LightningTx `json:"transactions"`
	CLTVExpiryDistribution   []CLTVBucket  `json:"cltv_expiry_distribution"`
}
