package methodology

// Config는 Fama-French 1993 팩터 구성 방법론 전체 설정
// ⭐ SSOT: 필터 코드, 브레이크포인트, 스케일 상수는 여기서만 정의
type Config struct {
	Meta         Meta         `yaml:"meta" json:"meta"`
	Universe     Universe     `yaml:"universe" json:"universe"`
	Fundamentals Fundamentals `yaml:"fundamentals" json:"fundamentals"`
	Calendar     Calendar     `yaml:"calendar" json:"calendar"`
	Breakpoints  Breakpoints  `yaml:"breakpoints" json:"breakpoints"`
}

// Meta 메타 정보
type Meta struct {
	MethodologyID string `yaml:"methodology_id" json:"methodology_id" validate:"required"`
	Version       string `yaml:"version" json:"version" validate:"required"`
}

// Universe S1: 보통주 유니버스 (CRSP CIZ 분류 코드)
type Universe struct {
	ShareTypes       []string `yaml:"share_types" json:"share_types" validate:"required,min=1,dive,required"`
	SecurityTypes    []string `yaml:"security_types" json:"security_types" validate:"required,min=1,dive,required"`
	SecuritySubtypes []string `yaml:"security_subtypes" json:"security_subtypes" validate:"required,min=1,dive,required"`
	USIncorporation  []string `yaml:"us_incorporation" json:"us_incorporation" validate:"required,min=1,dive,required"`
	IssuerTypes      []string `yaml:"issuer_types" json:"issuer_types" validate:"required,min=1,dive,required"`
	Exchanges        []string `yaml:"exchanges" json:"exchanges" validate:"required,min=1,dive,required"`
	ConditionalTypes []string `yaml:"conditional_types" json:"conditional_types" validate:"required,min=1,dive,required"`
	TradingStatuses  []string `yaml:"trading_statuses" json:"trading_statuses" validate:"required,min=1,dive,required"`
}

// Fundamentals S0/S4: 장부가치 관련 상수
type Fundamentals struct {
	// BookEquityScale converts Compustat millions to CRSP thousands (be × scale / dec_me)
	BookEquityScale float64 `yaml:"book_equity_scale" json:"book_equity_scale" validate:"gt=0"`
}

// Calendar S3: 포트폴리오 형성 월
type Calendar struct {
	// FormationMonth is the month buckets are formed (6 = June, held July..June)
	FormationMonth int `yaml:"formation_month" json:"formation_month" validate:"min=1,max=11"`
}

// Breakpoints S5: NYSE 브레이크포인트
type Breakpoints struct {
	Exchange            string  `yaml:"exchange" json:"exchange" validate:"required"`
	SizePercentile      float64 `yaml:"size_percentile" json:"size_percentile" validate:"gt=0,lt=1"`
	ValueLowPercentile  float64 `yaml:"value_low_percentile" json:"value_low_percentile" validate:"gt=0,lt=1"`
	ValueHighPercentile float64 `yaml:"value_high_percentile" json:"value_high_percentile" validate:"gt=0,lt=1"`
	MinObservationCount int     `yaml:"min_observation_count" json:"min_observation_count" validate:"gte=0"`
}

// Default returns the canonical Fama-French 1993 methodology
func Default() *Config {
	return &Config{
		Meta: Meta{
			MethodologyID: "fama_french_1993",
			Version:       "1",
		},
		Universe: Universe{
			ShareTypes:       []string{"NS"},
			SecurityTypes:    []string{"EQTY"},
			SecuritySubtypes: []string{"COM"},
			USIncorporation:  []string{"Y"},
			IssuerTypes:      []string{"ACOR", "CORP"},
			Exchanges:        []string{"N", "A", "Q"},
			ConditionalTypes: []string{"RW"},
			TradingStatuses:  []string{"A"},
		},
		Fundamentals: Fundamentals{
			BookEquityScale: 1000,
		},
		Calendar: Calendar{
			FormationMonth: 6,
		},
		Breakpoints: Breakpoints{
			Exchange:            "N",
			SizePercentile:      0.5,
			ValueLowPercentile:  0.3,
			ValueHighPercentile: 0.7,
			MinObservationCount: 1,
		},
	}
}
