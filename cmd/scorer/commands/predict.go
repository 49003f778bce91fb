package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/campaign-scorer/internal/api/handlers"
	"github.com/wonny/campaign-scorer/internal/artifacts"
	"github.com/wonny/campaign-scorer/internal/client"
	"github.com/wonny/campaign-scorer/internal/contracts"
	"github.com/wonny/campaign-scorer/internal/history"
	"github.com/wonny/campaign-scorer/internal/inference"
	"github.com/wonny/campaign-scorer/internal/validation"
	"github.com/wonny/campaign-scorer/pkg/httputil"
	"github.com/wonny/campaign-scorer/pkg/redis"
)

// predictCmd scores records from a file
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "파일의 고객 레코드 예측",
	Long: `JSON 파일의 고객 레코드를 예측합니다.

입력 형식 (셋 중 하나):
  [{...}, {...}]            - 레코드 배열
  {"clients": [{...}]}      - 배치 요청 형식
  {"client": {...}} / {...} - 단건

기본은 로컬 아티팩트로 예측하고, --remote 를 주면 ML_API_URL(또는 --url)의
API 서버를 호출합니다.

Example:
  go run ./cmd/scorer predict --file clients.json
  go run ./cmd/scorer predict --file - < clients.json
  go run ./cmd/scorer predict --file clients.json --remote --url http://scorer:8000`,
	RunE: runPredict,
}

var (
	predictFile   string
	predictRemote bool
	predictURL    string
	predictStub   float64
)

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVarP(&predictFile, "file", "f", "", "레코드 JSON 파일 (- 는 stdin)")
	predictCmd.Flags().BoolVar(&predictRemote, "remote", false, "원격 API 서버로 예측")
	predictCmd.Flags().StringVar(&predictURL, "url", "", "원격 API 주소 (default ML_API_URL)")
	predictCmd.Flags().Float64Var(&predictStub, "stub-model", 0, "모델 파일 대신 고정 확률 stub 사용")
	_ = predictCmd.MarkFlagRequired("file")
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	data, err := readInput(cmd.InOrStdin(), predictFile)
	if err != nil {
		return err
	}
	records, err := parseRecords(data)
	if err != nil {
		return err
	}

	var results []contracts.PredictionResult
	if predictRemote {
		url := cfg.Remote.URL
		if predictURL != "" {
			url = predictURL
		}
		hc := httputil.NewWithTimeout(log, cfg.Remote.Timeout)
		// Redis 가 있으면 API 서버와 같은 쿼터 공유
		rdb, rerr := redis.New(cmd.Context(), cfg)
		if rerr != nil {
			log.WithError(rerr).Warn("Redis unavailable, remote calls are not throttled")
		} else if rdb.Enabled() {
			defer rdb.Close()
			hc.WithRateLimiter(redis.NewRateLimiter(rdb, "scorer"), redis.ClientRateLimit("cli", cfg.RateLimit.RPS))
		}
		results, err = client.New(url, hc).PredictBatch(cmd.Context(), records)
	} else {
		if err := validation.ValidateBatch(records); err != nil {
			return err
		}
		bundle, loadErr := artifacts.Load(cmd.Context(), artifactPaths(cfg), loadOptions(cmd, predictStub)...)
		svc := inference.New(bundle, loadErr, inference.Options{
			Workers: cfg.Artifacts.Workers,
			Logger:  log,
		})
		results, err = svc.PredictBatch(cmd.Context(), records, history.SourceBatch)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(handlers.BatchResponse{Results: results})
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return data, nil
}

// parseRecords accepts an array, a batch request or a single record
func parseRecords(data []byte) ([]contracts.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("no records in input")
	}

	if data[0] == '[' {
		var recs []contracts.Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("parse records: %w", err)
		}
		return recs, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}

	if raw, ok := obj["clients"]; ok {
		var req handlers.BatchRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("parse clients: %w", err)
		}
		if req.Clients == nil {
			return nil, fmt.Errorf("parse clients: expected array, got %s", raw)
		}
		return req.Clients, nil
	}
	if _, ok := obj["client"]; ok {
		var req handlers.PredictRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("parse client: %w", err)
		}
		return []contracts.Record{req.Client}, nil
	}

	var rec contracts.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return []contracts.Record{rec}, nil
}
