package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/campaign-scorer/internal/artifacts"
	"github.com/wonny/campaign-scorer/internal/inference"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "학습 아티팩트 관리",
}

var artifactsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "아티팩트 로드 및 정합성 검사",
	Long: `모델, 전처리기, 피처 설정, 임계값을 로드하고 서로 맞는지 확인합니다.

검사 항목:
- 전처리기 JSON 스키마
- feature_config.yaml 피처 순서 (있을 때)
- 모델 입력 차원 == 전처리 출력 차원
- 임계값 범위 [0, 1]

Example:
  go run ./cmd/scorer artifacts check`,
	RunE: runArtifactsCheck,
}

var checkStub float64

func init() {
	rootCmd.AddCommand(artifactsCmd)
	artifactsCmd.AddCommand(artifactsCheckCmd)

	artifactsCheckCmd.Flags().Float64Var(&checkStub, "stub-model", 0, "모델 파일 대신 고정 확률 stub 사용")
}

func runArtifactsCheck(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	paths := artifactPaths(cfg)
	out := cmd.OutOrStdout()

	printHeader(out, "Artifact Check")
	printField(out, "Model", paths.Model)
	printField(out, "Preprocessor", paths.Preprocessor)
	printField(out, "Feature config", paths.FeatureConfig)
	printField(out, "Threshold", paths.Threshold)
	fmt.Fprintln(out, lightRule)

	bundle, err := artifacts.Load(cmd.Context(), paths, loadOptions(cmd, checkStub)...)
	if err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		printFooter(out)
		return err
	}

	info, err := inference.New(bundle, nil, inference.Options{Logger: log}).Info()
	if err != nil {
		return err
	}

	printField(out, "Algorithm", info.Algorithm)
	printField(out, "Threshold", info.Threshold)
	printField(out, "Fingerprint", bundle.ShortFingerprint())
	printField(out, "Input", info.Features.Input)
	printField(out, "Engineered", info.Features.Engineered)
	printField(out, "After eng.", info.Features.TotalAfterEngineering)
	printField(out, "After prep.", info.Features.TotalAfterPreprocessing)
	fmt.Fprintln(out, "✅ Artifacts are consistent")
	printFooter(out)
	return nil
}
