package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// RemoteRunner executes programs on a sandbox service over HTTP. The
// service owns the OS-level isolation; this client only ships the program
// and reads back stdout.
type RemoteRunner struct {
	client *resty.Client
}

type runCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type runResult struct {
	Status     string `json:"status"`
	ReturnCode int    `json:"return_code"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
}

type runCodeResponse struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	RunResult *runResult `json:"run_result"`
}

func NewRemoteRunner(baseURL string) *RemoteRunner {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "codementor-judge/1.0")
	return &RemoteRunner{client: client}
}

func (r *RemoteRunner) Run(ctx context.Context, program string) (string, error) {
	var apiResp runCodeResponse
	httpResp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(runCodeRequest{Code: program, Language: "nodejs"}).
		SetResult(&apiResp).
		Post("/run_code")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("sandbox request failed: %w", err)
	}
	if httpResp.IsError() {
		return "", fmt.Errorf("sandbox error (%d): %s", httpResp.StatusCode(), httpResp.String())
	}
	if apiResp.Status != "Success" {
		return "", fmt.Errorf("sandbox run failed: %s", apiResp.Message)
	}
	if apiResp.RunResult == nil {
		return "", fmt.Errorf("sandbox returned no run result")
	}
	return apiResp.RunResult.Stdout, nil
}
