package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tubegrab/tubegrab/internal/scheduler"
	"github.com/tubegrab/tubegrab/internal/utils"
)

type BatchEntry struct {
	Link       string `yaml:"link"`
	ID         string `yaml:"id,omitempty"`
	OutputPath string `yaml:"op,omitempty"`
	Size       uint64 `yaml:"size,omitempty"`
}

type BatchFile struct {
	Streams []BatchEntry `yaml:"streams"`
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Download multiple streams listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading YAML file: %v\n", err)
				os.Exit(1)
			}
			var batchFile BatchFile
			if err := yaml.Unmarshal(data, &batchFile); err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing YAML file: %v\n", err)
				os.Exit(1)
			}
			jobs := buildJobsFromBatch(batchFile)
			if len(jobs) == 0 {
				fmt.Fprintf(os.Stderr, "No valid entries found in the batch file\n")
				os.Exit(1)
			}
			if err := scheduler.Run(context.Background(), jobs, workers); err != nil {
				fmt.Fprintf(os.Stderr, "Error running batch: %v\n", err)
				os.Exit(1)
			}
		},
	}
	return cmd
}

func buildJobsFromBatch(batchFile BatchFile) []utils.StreamJob {
	var jobs []utils.StreamJob
	for _, entry := range batchFile.Streams {
		if entry.Link == "" {
			fmt.Fprintf(os.Stderr, "Warning: Empty link in batch entry, skipping...\n")
			continue
		}
		id := entry.ID
		if id == "" && entry.OutputPath == "" {
			id = "stream"
		}
		jobs = append(jobs, utils.StreamJob{
			URL:              entry.Link,
			StreamID:         id,
			OutputPath:       entry.OutputPath,
			LengthHint:       entry.Size,
			HTTPClientConfig: globalHTTPConfig(),
		})
	}
	return jobs
}
