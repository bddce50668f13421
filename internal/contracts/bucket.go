package contracts

// SizeLabel is the size half of a 2×3 bucket.
type SizeLabel string

const (
	SizeNone  SizeLabel = ""
	SizeSmall SizeLabel = "S"
	SizeBig   SizeLabel = "B"
)

// ValueLabel is the book-to-market third of a 2×3 bucket.
type ValueLabel string

const (
	ValueNone   ValueLabel = ""
	ValueLow    ValueLabel = "L"
	ValueMedium ValueLabel = "ME"
	ValueHigh   ValueLabel = "H"
)

// BucketCode is the concatenated size+value code.
// ⭐ SSOT: 버킷 코드는 정확히 6개 (SL, SME, SH, BL, BME, BH)
type BucketCode string

const (
	BucketSL  BucketCode = "SL"
	BucketSME BucketCode = "SME"
	BucketSH  BucketCode = "SH"
	BucketBL  BucketCode = "BL"
	BucketBME BucketCode = "BME"
	BucketBH  BucketCode = "BH"
)

// AllBuckets returns the six bucket codes in canonical order.
func AllBuckets() []BucketCode {
	return []BucketCode{BucketSL, BucketSME, BucketSH, BucketBL, BucketBME, BucketBH}
}

// NewBucketCode joins two labels. ok is false if either label is empty.
func NewBucketCode(size SizeLabel, value ValueLabel) (BucketCode, bool) {
	if size == SizeNone || value == ValueNone {
		return "", false
	}
	return BucketCode(string(size) + string(value)), true
}

// IsValid reports whether b is one of the six bucket codes.
func (b BucketCode) IsValid() bool {
	for _, code := range AllBuckets() {
		if b == code {
			return true
		}
	}
	return false
}

func (b BucketCode) String() string {
	return string(b)
}
