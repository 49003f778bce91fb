package features

import (
	"fmt"
	"math"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

// Feature engineering errors
var (
	ErrAgeOutOfRange  = fmt.Errorf("%w: age must be in (0, 100]", contracts.ErrMalformedInput)
	ErrZeroEmployment = fmt.Errorf("%w: nr_employed must be non-zero", contracts.ErrMalformedInput)
	ErrNonFinite      = fmt.Errorf("%w: value must be finite", contracts.ErrMalformedInput)
)

// Derived attribute names, grouped in calculation order
var (
	AgeAttributes      = []string{"is_senior", "is_young", "age_squared", "age_bin"}
	CampaignAttributes = []string{"single_call", "high_campaign"}
	EconomicAttributes = []string{"euribor_low", "euribor_high", "confidence_low", "confidence_high"}

	InteractionAttributes = []string{
		"campaign_x_empvar",
		"euribor_x_confidence",
		"euribor_x_price",
		"empvar_x_employed",
		"age_x_campaign",
		"age_x_empvar",
		"campaign_x_confidence",
		"euribor_x_employed",
		"price_x_confidence",
		"empvar_x_confidence",
	}

	RatioAttributes = []string{
		"economic_ratio",
		"employment_ratio",
		"price_per_confidence",
		"campaign_intensity",
		"euribor_per_employed",
	}
)

// DerivedCount is the number of attributes Engineer adds
const DerivedCount = 25

// ageBinEdges are the upper bounds of the (lo, hi] age buckets 1..5
var ageBinEdges = [...]float64{30, 40, 50, 60, 100}

// DerivedAttributes returns all 25 derived attribute names in calculation order
func DerivedAttributes() []string {
	names := make([]string, 0, DerivedCount)
	names = append(names, AgeAttributes...)
	names = append(names, CampaignAttributes...)
	names = append(names, EconomicAttributes...)
	names = append(names, InteractionAttributes...)
	names = append(names, RatioAttributes...)
	return names
}

// RawAttributes is the client record schema (dotted form)
var RawAttributes = []string{
	"age", "job", "marital", "education", "default", "housing", "loan",
	"contact", "month", "day_of_week", "campaign",
	"emp.var.rate", "cons.price.idx", "cons.conf.idx", "euribor3m", "nr.employed",
}

// RequiredAttributes are the numeric raw attributes the formulas read (underscored form)
var RequiredAttributes = []string{
	"age", "campaign", "euribor3m",
	"emp_var_rate", "cons_price_idx", "cons_conf_idx", "nr_employed",
}

// Engineer expands raw client records with the derived attributes
// ⭐ SSOT: 파생 변수 공식은 여기서만 정의
type Engineer struct{}

// NewEngineer creates a feature engineer
func NewEngineer() *Engineer {
	return &Engineer{}
}

// inputs holds the numeric raw attributes used by the formulas
type inputs struct {
	age          float64
	campaign     float64
	euribor3m    float64
	empVarRate   float64
	consPriceIdx float64
	consConfIdx  float64
	nrEmployed   float64
}

// Engineer returns a new record carrying rec's attributes plus the 25 derived ones.
// The four economic indicators come back under their dotted names. rec is not modified.
func (e *Engineer) Engineer(rec contracts.Record) (contracts.Record, error) {
	// 1. underscore 로 정규화
	out, err := ToUnderscore(rec)
	if err != nil {
		return nil, err
	}

	in, err := readInputs(out)
	if err != nil {
		return nil, err
	}

	// 2-6. 모든 파생 변수는 원본 값만 사용 (single pass)
	for _, group := range []func(inputs, contracts.Record) error{
		ageFeatures,
		campaignFeatures,
		economicFeatures,
		interactionFeatures,
		ratioFeatures,
	} {
		if err := group(in, out); err != nil {
			return nil, err
		}
	}

	// 7. 전처리기 스키마(dotted)로 복원
	return ToDotted(out)
}

func readInputs(rec contracts.Record) (inputs, error) {
	vals := make([]float64, len(RequiredAttributes))
	for i, name := range RequiredAttributes {
		f, err := rec.Float(name)
		if err != nil {
			return inputs{}, err
		}
		if !contracts.IsFinite(f) {
			return inputs{}, fmt.Errorf("%w: %s=%v", ErrNonFinite, name, f)
		}
		vals[i] = f
	}

	return inputs{
		age:          vals[0],
		campaign:     vals[1],
		euribor3m:    vals[2],
		empVarRate:   vals[3],
		consPriceIdx: vals[4],
		consConfIdx:  vals[5],
		nrEmployed:   vals[6],
	}, nil
}

func ageFeatures(in inputs, out contracts.Record) error {
	bin, err := AgeBin(in.age)
	if err != nil {
		return err
	}

	out["is_senior"] = flag(in.age >= 60)
	out["is_young"] = flag(in.age <= 30)
	out["age_squared"] = in.age * in.age
	out["age_bin"] = float64(bin)
	return nil
}

func campaignFeatures(in inputs, out contracts.Record) error {
	out["single_call"] = flag(in.campaign == 1)
	out["high_campaign"] = flag(in.campaign > 5)
	return nil
}

func economicFeatures(in inputs, out contracts.Record) error {
	out["euribor_low"] = flag(in.euribor3m < 1)
	out["euribor_high"] = flag(in.euribor3m > 4)
	out["confidence_low"] = flag(in.consConfIdx < -40)
	out["confidence_high"] = flag(in.consConfIdx > -30)
	return nil
}

func interactionFeatures(in inputs, out contracts.Record) error {
	out["campaign_x_empvar"] = in.campaign * in.empVarRate
	out["euribor_x_confidence"] = in.euribor3m * in.consConfIdx
	out["euribor_x_price"] = in.euribor3m * in.consPriceIdx
	out["empvar_x_employed"] = in.empVarRate * in.nrEmployed
	out["age_x_campaign"] = in.age * in.campaign
	out["age_x_empvar"] = in.age * in.empVarRate
	out["campaign_x_confidence"] = in.campaign * in.consConfIdx
	out["euribor_x_employed"] = in.euribor3m * in.nrEmployed
	out["price_x_confidence"] = in.consPriceIdx * in.consConfIdx
	out["empvar_x_confidence"] = in.empVarRate * in.consConfIdx
	return nil
}

func ratioFeatures(in inputs, out contracts.Record) error {
	// nr_employed 분모는 보호되지 않으므로 0 이면 거부
	if in.nrEmployed == 0 {
		return ErrZeroEmployment
	}
	employedK := in.nrEmployed / 1000
	confDenom := math.Abs(in.consConfIdx) + 1

	out["economic_ratio"] = in.euribor3m / confDenom
	out["employment_ratio"] = in.empVarRate / employedK
	out["price_per_confidence"] = in.consPriceIdx / confDenom
	// age > 0 is guaranteed by ageFeatures
	out["campaign_intensity"] = in.campaign / (in.age + 1)
	out["euribor_per_employed"] = in.euribor3m / employedK
	return nil
}

// AgeBin returns the 1..5 bucket for age on (0,30] (30,40] (40,50] (50,60] (60,100].
// Boundary ages fall into the lower bucket.
func AgeBin(age float64) (int, error) {
	if !(age > 0 && age <= ageBinEdges[len(ageBinEdges)-1]) {
		return 0, fmt.Errorf("%w: got %v", ErrAgeOutOfRange, age)
	}
	for i, hi := range ageBinEdges {
		if age <= hi {
			return i + 1, nil
		}
	}
	return len(ageBinEdges), nil
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
