package s1_universe

import (
	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/internal/methodology"
)

// Exclusion reasons (집계용, 행 단위 로그는 남기지 않음)
const (
	ReasonShareType       = "share_type"
	ReasonSecurityType    = "security_type"
	ReasonSecuritySubtype = "security_subtype"
	ReasonIncorporation   = "us_incorporation"
	ReasonIssuerType      = "issuer_type"
	ReasonExchange        = "exchange"
	ReasonConditionalType = "conditional_type"
	ReasonTradingStatus   = "trading_status"
)

// Filter selects common stock listed on the configured exchanges
type Filter struct {
	shareTypes       set
	securityTypes    set
	securitySubtypes set
	usIncorporation  set
	issuerTypes      set
	exchanges        set
	conditionalTypes set
	tradingStatuses  set
}

// Result holds the kept rows and exclusion counts by reason
type Result struct {
	Records  []contracts.SecurityMonthRecord
	Excluded map[string]int
}

// NewFilter creates a Filter from methodology universe rules
func NewFilter(rules methodology.Universe) *Filter {
	return &Filter{
		shareTypes:       newSet(rules.ShareTypes),
		securityTypes:    newSet(rules.SecurityTypes),
		securitySubtypes: newSet(rules.SecuritySubtypes),
		usIncorporation:  newSet(rules.USIncorporation),
		issuerTypes:      newSet(rules.IssuerTypes),
		exchanges:        newSet(rules.Exchanges),
		conditionalTypes: newSet(rules.ConditionalTypes),
		tradingStatuses:  newSet(rules.TradingStatuses),
	}
}

// Apply keeps rows passing every rule, preserving input order
// ⭐ SSOT: S1 유니버스 필터 (EligibilityExclusion은 에러가 아님)
func (f *Filter) Apply(records []contracts.SecurityMonthRecord) *Result {
	result := &Result{
		Records:  make([]contracts.SecurityMonthRecord, 0, len(records)),
		Excluded: make(map[string]int),
	}

	for _, r := range records {
		if reason := f.checkExclusion(r); reason != "" {
			result.Excluded[reason]++
			continue
		}
		result.Records = append(result.Records, r)
	}

	return result
}

// checkExclusion returns the first failing rule, or "" if the row is kept
func (f *Filter) checkExclusion(r contracts.SecurityMonthRecord) string {
	// 1. 보통주 분류
	if !f.shareTypes.has(r.ShareType) {
		return ReasonShareType
	}
	if !f.securityTypes.has(r.SecurityType) {
		return ReasonSecurityType
	}
	if !f.securitySubtypes.has(r.SecuritySubtype) {
		return ReasonSecuritySubtype
	}

	// 2. 미국 법인
	if !f.usIncorporation.has(r.USIncorporation) {
		return ReasonIncorporation
	}
	if !f.issuerTypes.has(r.IssuerType) {
		return ReasonIssuerType
	}

	// 3. 거래소 / 거래 상태
	if !f.exchanges.has(r.ExchangeCode) {
		return ReasonExchange
	}
	if !f.conditionalTypes.has(r.ConditionalType) {
		return ReasonConditionalType
	}
	if !f.tradingStatuses.has(r.TradingStatus) {
		return ReasonTradingStatus
	}

	return ""
}

type set map[string]struct{}

func newSet(values []string) set {
	s := make(set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}
