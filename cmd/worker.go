package cmd

import (
	"course-media/config"
	server2 "course-media/server"
	"github.com/spf13/cobra"
)

func worker(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "start the transcode worker",
		Run: func(cmd *cobra.Command, args []string) {
			server2.RunWorker(config)
		},
	}
}
