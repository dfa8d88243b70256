package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptwire/promptwire/promptfile"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <file.prompt>",
	Short: "Validate a prompt manifest and list its fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := promptfile.ParseFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "name:     %s\n", f.Name)
		if f.Description != "" {
			fmt.Fprintf(out, "desc:     %s\n", f.Description)
		}
		if f.Provider != "" {
			fmt.Fprintf(out, "provider: %s\n", f.Provider)
		}
		if f.Model != "" {
			fmt.Fprintf(out, "model:    %s\n", f.Model)
		}
		if len(f.Args) > 0 {
			fmt.Fprintf(out, "args:     %s\n", strings.Join(f.Args, ", "))
		}
		if len(f.Tools) > 0 {
			fmt.Fprintf(out, "tools:    %s\n", strings.Join(f.Tools, ", "))
		}
		fmt.Fprintf(out, "fields:   %s\n", strings.Join(f.Template.FieldNames(), ", "))
		return nil
	},
}
