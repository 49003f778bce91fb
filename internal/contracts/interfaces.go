package contracts

// FeatureEngineer expands a raw client record with derived attributes (P1)
// ⭐ SSOT: P1 파생 변수 인터페이스
type FeatureEngineer interface {
	Engineer(rec Record) (Record, error)
}

// Transformer applies the pre-fitted column transform (P2)
// ⭐ SSOT: P2 전처리 인터페이스
type Transformer interface {
	Transform(rec Record) (FeatureVector, error)
}

// Scorer maps a feature vector to the positive-class probability (P3)
// ⭐ SSOT: P3 모델 추론 인터페이스
type Scorer interface {
	Score(vec FeatureVector) (float64, error)
}
