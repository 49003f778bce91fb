package contracts

// Pipeline Stage 정의 (SSOT)
// 로그, 메트릭, 에러 분류에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   P1 → P2 → P3 → P4
//   Features  Preprocess  Scoring  Decision

// Stage represents a scoring pipeline stage
type Stage string

const (
	// StageFeatures P1: 파생 변수 생성
	// 책임: 컬럼명 정규화, 25개 파생 변수 계산
	// 위치: internal/features/
	StageFeatures Stage = "P1_FEATURES"

	// StagePreprocess P2: 학습된 컬럼 변환 적용
	// 책임: 결측치 대체, 원-핫 인코딩, 스케일링
	// 위치: internal/preprocess/
	StagePreprocess Stage = "P2_PREPROCESS"

	// StageScoring P3: 모델 추론
	// 책임: 수치 벡터 → 양성 클래스 확률
	// 위치: internal/scoring/
	StageScoring Stage = "P3_SCORING"

	// StageDecision P4: 임계값 적용
	// 책임: 확률 → YES/NO 라벨
	// 위치: internal/decision/
	StageDecision Stage = "P4_DECISION"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "P1", "P2")
func (s Stage) ShortName() string {
	switch s {
	case StageFeatures:
		return "P1"
	case StagePreprocess:
		return "P2"
	case StageScoring:
		return "P3"
	case StageDecision:
		return "P4"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns all stages in execution order
func AllStages() []Stage {
	return []Stage{
		StageFeatures,
		StagePreprocess,
		StageScoring,
		StageDecision,
	}
}
