package main

import "github.com/spf13/cobra"

var stagesCmd = &cobra.Command{
	Use:         "stages",
	Short:       "List the stage names accepted by --suppress",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoConfig: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		printStageNames(cmd)
	},
}
