package contracts

// Inputs bundles the three extracts of one run.
type Inputs struct {
	Securities   []SecurityMonthRecord
	Fundamentals []FundamentalsRecord
	Links        []LinkRecord
}

// Results bundles every data table a run produces.
// ⭐ idempotence 대상: 동일 입력 → 동일 Results
type Results struct {
	Portfolios []PortfolioReturn
	Factors    []FactorRecord
	FirmCounts []FirmCountRecord
	PanelRet   []PanelRecord
	PanelRetx  []PanelRecord
}

// FactorsInRange returns factor rows with from <= month <= to.
func (r *Results) FactorsInRange(from, to Month) []FactorRecord {
	var out []FactorRecord
	for _, f := range r.Factors {
		if f.Month >= from && f.Month <= to {
			out = append(out, f)
		}
	}
	return out
}
