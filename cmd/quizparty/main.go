package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	log := logrus.New()
	cobra.CheckErr(newRootCmd(log).Execute())
}

func newRootCmd(log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quizparty",
		Short:   "A serverless quiz board game: one peer hosts, everyone else joins with a room code.",
		Version: releaseVersion,
	}
	cmd.AddCommand(newHostCmd(log), newJoinCmd(log))
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceUsage = true
	return cmd
}
