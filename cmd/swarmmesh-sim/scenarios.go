package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"swarmmesh-sim/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [name]",
	Short: "List built-in scenarios or show the steps of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			sc, err := scenario.Lookup(args[0])
			if err != nil {
				return err
			}
			return printSteps(cmd.OutOrStdout(), sc)
		}
		return printScenarios(cmd.OutOrStdout())
	},
}

func printScenarios(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDURATION\tSTEPS\tDESCRIPTION")
	builtIn := scenario.BuiltIn()
	for _, name := range scenario.Names() {
		sc := builtIn[name]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", sc.Name, sc.Duration(), len(sc.Steps), sc.Description)
	}
	return tw.Flush()
}

func printSteps(out io.Writer, sc *scenario.Scenario) error {
	fmt.Fprintf(out, "%s: %s\n", sc.Name, sc.Description)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tACTION\tARGS")
	for _, st := range sc.Ordered() {
		arg := ""
		switch {
		case st.Formation != "":
			arg = string(st.Formation)
		case st.Motion != nil:
			arg = fmt.Sprintf("x=%.2f y=%.2f yaw=%.2f", st.Motion.X, st.Motion.Y, st.Motion.Yaw)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", st.At, st.Action, arg)
	}
	return tw.Flush()
}
