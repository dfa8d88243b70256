package call

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/prompt"
	"github.com/promptwire/promptwire/tool"
)

// ErrMaxToolTurns reports that RunToolLoop hit its configured turn bound
// before the model produced a terminal response.
var ErrMaxToolTurns = fmt.Errorf("call: max tool turns exceeded")

// RunToolLoop drives the full tool round trip: dispatch, execute every
// requested tool, re-inject the results and redispatch until the model
// answers without tool calls. It returns the terminal response together
// with the accumulated history.
//
// Tool execution errors become the tool's result text and go back to the
// model; they never abort the loop. Validation errors do, since they mean
// the model and the schema disagree.
func RunToolLoop(ctx context.Context, cfg *Config, tmpl *prompt.Template, args map[string]interface{}, fn PromptFn) (*Response, []core.Message, error) {
	var dyn *DynamicConfig
	if fn != nil {
		var err error
		if dyn, err = fn(args); err != nil {
			return nil, nil, err
		}
	}

	var computed map[string]interface{}
	if dyn != nil {
		computed = dyn.ComputedFields
	}
	messages, err := tmpl.Messages(args, computed)
	if err != nil {
		return nil, nil, err
	}

	for turn := 0; ; turn++ {
		if cfg.MaxToolTurns > 0 && turn >= cfg.MaxToolTurns {
			return nil, messages, fmt.Errorf("%w after %d turns", ErrMaxToolTurns, turn)
		}

		resp, err := GenerateMessages(ctx, cfg, messages, dyn)
		if err != nil {
			return nil, messages, err
		}

		invocations, err := resp.ToolCalls()
		if err != nil {
			return nil, messages, err
		}
		if len(invocations) == 0 {
			return resp, messages, nil
		}

		results := executeAll(ctx, cfg, invocations)
		messages = append(messages, resp.Message())
		messages = append(messages, resp.ToolResultMessages(results...)...)
	}
}

// executeAll runs every invocation with bounded parallelism and returns
// results in call order. Panics are recovered into result errors.
func executeAll(ctx context.Context, cfg *Config, invocations []*tool.Invocation) []tool.Result {
	n := len(invocations)
	results := make([]tool.Result, n)

	// Fast path: single call, execute inline.
	if n == 1 {
		results[0] = executeOne(ctx, cfg, invocations[0])
		return results
	}

	maxPar := cfg.Concurrency
	if maxPar <= 0 || maxPar > int64(n) {
		maxPar = int64(n)
	}
	sem := semaphore.NewWeighted(maxPar)

	var wg sync.WaitGroup
	for i, inv := range invocations {
		if ctx.Err() != nil {
			results[i] = tool.Result{Invocation: inv, Err: ctx.Err()}
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = tool.Result{Invocation: inv, Err: err}
			continue
		}
		wg.Add(1)
		go func(idx int, inv *tool.Invocation) {
			defer wg.Done()
			defer sem.Release(1)
			results[idx] = executeOne(ctx, cfg, inv)
		}(i, inv)
	}
	wg.Wait()

	return results
}

func executeOne(ctx context.Context, cfg *Config, inv *tool.Invocation) tool.Result {
	cfg.Logger.Debug("tool start", "tool", inv.Tool.Name(), "call_id", inv.CallID)
	start := time.Now()

	var (
		value interface{}
		err   error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("tool panic: %v", r)
				cfg.Logger.Error("tool panic", "tool", inv.Tool.Name(), "call_id", inv.CallID, "recover", r)
			}
		}()
		value, err = inv.Invoke(ctx)
	}()

	cfg.Logger.Info("tool executed",
		"tool", inv.Tool.Name(),
		"call_id", inv.CallID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)
	return tool.Result{Invocation: inv, Value: value, Err: err}
}
