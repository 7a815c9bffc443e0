package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dszqbsm/rentmonitor/cmd/pipeline"
	"github.com/dszqbsm/rentmonitor/version"
)

// cmd.go借助cobra定义命令行界面：ingest/extract/format/aggregate分别执行流水线的一个阶段，run按顺序执行全部阶段，version打印版本信息
// 所有子命令共用--config指定的配置文件

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version.",
	Long:  "print version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version.Printer(cmd.OutOrStdout())
	},
}

func Execute() {
	var rootCmd = &cobra.Command{
		Use:           "rentmonitor",
		Short:         "rental listings pipeline.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().String(pipeline.ConfigFlag, "config.yaml", "path of the yaml config file")
	rootCmd.AddCommand(
		pipeline.IngestCmd,
		pipeline.ExtractCmd,
		pipeline.FormatCmd,
		pipeline.AggregateCmd,
		pipeline.RunCmd,
		versionCmd,
	)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
