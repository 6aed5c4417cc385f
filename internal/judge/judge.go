// Package judge evaluates participant submissions against an exercise's
// judge data.
//
// Submissions never execute in this process. Exercises with a parameter
// contract are compiled into a wrapper program and run by a Runner — a
// disposable subprocess or a remote sandbox service — under a wall-clock
// ceiling. Exercises without parameters fall back to a normalized
// whole-text comparison against the reference solution, with no execution
// at all.
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"codementor/internal/metrics"
)

// Kind classifies an evaluation outcome. All kinds are non-fatal verdicts;
// the evaluator itself only errors on infrastructure failures.
type Kind string

const (
	KindOK             = Kind("ok")
	KindCompileError   = Kind("compile_error")
	KindTimeout        = Kind("timeout")
	KindRuntimeFault   = Kind("runtime_fault")
	KindOutputMismatch = Kind("output_mismatch")
)

// Request carries one submission and the exercise's judge data.
type Request struct {
	Source     string
	ParamNames []string
	Args       []json.RawMessage
	Expected   string
	Solution   string
}

// Result is the structured verdict for one evaluation.
type Result struct {
	Passed bool   `json:"passed"`
	Kind   Kind   `json:"kind"`
	Value  string `json:"value,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Evaluator runs submissions through a Runner with a fixed time limit.
type Evaluator struct {
	runner  Runner
	timeout time.Duration
	log     zerolog.Logger
}

func New(runner Runner, timeout time.Duration, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		runner:  runner,
		timeout: timeout,
		log:     log.With().Str("component", "judge").Logger(),
	}
}

// Evaluate scores a submission. A non-empty parameter list selects
// execute-and-compare; otherwise the source is diffed against the
// reference solution. The returned error is reserved for evaluator
// infrastructure failures and never reflects the submission itself.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (Result, error) {
	var res Result
	var err error
	if len(req.ParamNames) > 0 {
		res, err = e.execute(ctx, req)
	} else {
		res = compareReference(req.Source, req.Solution)
	}
	if err != nil {
		return Result{}, err
	}
	metrics.RecordEvaluation(string(res.Kind))
	return res, nil
}

// runnerOutput is the JSON line the wrapper program prints.
type runnerOutput struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
	Error string `json:"error"`
}

func (e *Evaluator) execute(ctx context.Context, req Request) (Result, error) {
	program, err := buildProgram(req.Source, req.ParamNames, req.Args)
	if err != nil {
		return Result{}, fmt.Errorf("building wrapper program: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stdout, err := e.runner.Run(ctx, program)
	if errors.Is(err, context.DeadlineExceeded) {
		e.log.Warn().Dur("timeout", e.timeout).Msg("evaluation timed out")
		return Result{Kind: KindTimeout, Detail: fmt.Sprintf("execution exceeded %s", e.timeout)}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("running submission: %w", err)
	}

	out, err := parseRunnerOutput(stdout)
	if err != nil {
		return Result{}, err
	}

	switch out.Kind {
	case "compile":
		return Result{Kind: KindCompileError, Detail: out.Error}, nil
	case "runtime":
		return Result{Kind: KindRuntimeFault, Detail: out.Error}, nil
	case "ok":
		if Normalize(out.Value) == Normalize(req.Expected) {
			return Result{Passed: true, Kind: KindOK, Value: out.Value}, nil
		}
		return Result{
			Kind:   KindOutputMismatch,
			Value:  out.Value,
			Detail: fmt.Sprintf("got %q, want %q", out.Value, req.Expected),
		}, nil
	default:
		return Result{}, fmt.Errorf("unexpected runner output kind %q", out.Kind)
	}
}

// compareReference is the legacy mode: normalized whole-text comparison,
// no execution.
func compareReference(source, solution string) Result {
	if Normalize(source) == Normalize(solution) {
		return Result{Passed: true, Kind: KindOK}
	}
	return Result{Kind: KindOutputMismatch, Detail: "submission does not match the reference solution"}
}

func parseRunnerOutput(stdout string) (runnerOutput, error) {
	// The wrapper prints its verdict as the last stdout line; submitted
	// code may have printed above it.
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	last := lines[len(lines)-1]

	var out runnerOutput
	if err := json.Unmarshal([]byte(last), &out); err != nil {
		return out, fmt.Errorf("decoding runner output %q: %w", last, err)
	}
	return out, nil
}

// Normalize strips all whitespace and lowercases, the same treatment for
// both the captured value and the expected output.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// buildProgram wraps the submitted source into a self-contained script.
// Source, parameter names and arguments are injected as JSON literals, so
// submitted text cannot escape the wrapper.
func buildProgram(source string, params []string, args []json.RawMessage) (string, error) {
	srcJSON, err := json.Marshal(source)
	if err != nil {
		return "", err
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	if args == nil {
		args = []json.RawMessage{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("\"use strict\";\n")
	fmt.Fprintf(&b, "const __params = %s;\n", paramsJSON)
	fmt.Fprintf(&b, "const __args = %s;\n", argsJSON)
	fmt.Fprintf(&b, "const __source = %s;\n", srcJSON)
	b.WriteString(`let __fn;
try {
    __fn = new Function(...__params, __source);
} catch (err) {
    console.log(JSON.stringify({ kind: "compile", error: String(err) }));
    process.exit(0);
}
try {
    const __result = __fn(...__args);
    console.log(JSON.stringify({ kind: "ok", value: __result === undefined ? "" : String(__result) }));
} catch (err) {
    console.log(JSON.stringify({ kind: "runtime", error: String(err) }));
}
`)
	return b.String(), nil
}
