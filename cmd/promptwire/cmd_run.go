package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptwire/promptwire/call"
	"github.com/promptwire/promptwire/promptfile"
	"github.com/promptwire/promptwire/provider"
	"github.com/promptwire/promptwire/provider/anthropic"
	"github.com/promptwire/promptwire/provider/groq"
	"github.com/promptwire/promptwire/provider/openai"
	"github.com/promptwire/promptwire/tokens"
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArray("arg", nil, "template argument as k=v (repeatable)")
	runCmd.Flags().String("provider", "", "provider override (openai|anthropic|groq)")
	runCmd.Flags().String("model", "", "model override")
	runCmd.Flags().Bool("stream", false, "stream the response")
	runCmd.Flags().Bool("json", false, "request a JSON object response")
	runCmd.Flags().Bool("show-tokens", false, "print a local token estimate for the prompt")
}

var runCmd = &cobra.Command{
	Use:   "run <file.prompt>",
	Short: "Run a prompt manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		f, err := promptfile.ParseFile(cmdArgs[0])
		if err != nil {
			return err
		}

		argPairs, _ := cmd.Flags().GetStringArray("arg")
		args, err := parseArgs(argPairs)
		if err != nil {
			return err
		}
		if err := f.CheckArgs(args); err != nil {
			return err
		}

		providerName, _ := cmd.Flags().GetString("provider")
		if providerName == "" {
			providerName = f.Provider
		}
		adapter, err := buildAdapter(providerName)
		if err != nil {
			return err
		}

		params := f.Params
		if model, _ := cmd.Flags().GetString("model"); model != "" {
			params.Model = model
		}

		opts := []call.Option{
			call.WithParams(params),
			call.WithLogger(newLogger()),
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		if jsonMode || f.JSONMode {
			opts = append(opts, call.WithJSONMode())
		}
		cfg := call.New(adapter, opts...)

		if show, _ := cmd.Flags().GetBool("show-tokens"); show {
			if err := printTokenEstimate(cmd, f, args, params.Model); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		if stream, _ := cmd.Flags().GetBool("stream"); stream {
			s, err := call.GenerateStream(ctx, cfg, f.Template, args, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			for s.Next() {
				fmt.Fprint(cmd.OutOrStdout(), s.Current().Content())
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return s.Err()
		}

		resp, err := call.Generate(ctx, cfg, f.Template, args, nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Content())
		if usage := resp.Usage(); usage != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "tokens: %d in, %d out\n", usage.InputTokens, usage.OutputTokens)
		}
		return nil
	},
}

func parseArgs(pairs []string) (map[string]interface{}, error) {
	args := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --arg %q, expected k=v", pair)
		}
		args[k] = v
	}
	return args, nil
}

func buildAdapter(name string) (provider.Adapter, error) {
	switch name {
	case "openai", "":
		return openai.New(func(o *openai.Options) {
			o.APIKey = os.Getenv("OPENAI_API_KEY")
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			o.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}), nil
	case "groq":
		return groq.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func printTokenEstimate(cmd *cobra.Command, f *promptfile.File, args map[string]interface{}, model string) error {
	counter, err := tokens.NewCounter(model)
	if err != nil {
		return err
	}
	messages, err := f.Template.Messages(args, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "prompt tokens (estimate): %d\n", counter.CountMessages(messages))
	return nil
}
