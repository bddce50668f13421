package contracts

import "context"

// Dataset names shared by every storage backend.
// ⭐ SSOT: 파일명/테이블명은 여기서만 정의
const (
	DatasetSecurityMonths = "CRSP_stock_ciz"
	DatasetFundamentals   = "Compustat"
	DatasetLinks          = "CRSP_Comp_Link_Table"
	DatasetReference      = "FF_FACTORS"
	DatasetPortfolios     = "FF_1993_vwret"
	DatasetPortfolioCount = "FF_1993_vwret_n"
	DatasetFactors        = "FF_1993_factors"
	DatasetFirmCounts     = "FF_1993_nfirms"
	DatasetPanelRet       = "ftsfr_CRSP_monthly_stock_ret"
	DatasetPanelRetx      = "ftsfr_CRSP_monthly_stock_retx"
)

// Source loads the raw extracts (input side of S0)
// ⭐ SSOT: 입력 추출본 로딩 인터페이스
type Source interface {
	LoadSecurityMonths(ctx context.Context) ([]SecurityMonthRecord, error)
	LoadFundamentals(ctx context.Context) ([]FundamentalsRecord, error)
	LoadLinks(ctx context.Context) ([]LinkRecord, error)
}

// ReferenceSource loads published reference factors (S8)
type ReferenceSource interface {
	LoadReference(ctx context.Context) ([]ReferenceRecord, error)
}

// ReferenceSink persists published reference factors
type ReferenceSink interface {
	WriteReference(ctx context.Context, rows []ReferenceRecord) error
}

// Sink persists pipeline outputs
// ⭐ SSOT: 결과 출력 인터페이스 (파일/DB 구현은 storage 패키지)
type Sink interface {
	WritePortfolios(ctx context.Context, rows []PortfolioReturn) error
	WriteFactors(ctx context.Context, rows []FactorRecord) error
	WriteFirmCounts(ctx context.Context, rows []FirmCountRecord) error
	WritePanel(ctx context.Context, name string, rows []PanelRecord) error
	WriteSnapshot(ctx context.Context, snapshot *PipelineSnapshot) error
}

// ResultReader reads previously written outputs (API)
type ResultReader interface {
	ReadPortfolios(ctx context.Context) ([]PortfolioReturn, error)
	ReadFactors(ctx context.Context) ([]FactorRecord, error)
	ReadFirmCounts(ctx context.Context) ([]FirmCountRecord, error)
}
