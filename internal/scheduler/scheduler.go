package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tubegrab/tubegrab/internal/output"
	"github.com/tubegrab/tubegrab/internal/stream"
	"github.com/tubegrab/tubegrab/internal/utils"
)

// Run downloads the given jobs with numWorkers concurrent workers, rendering
// progress through the output manager. Individual failures are reported per
// job; Run itself only fails when no job could even be scheduled.
func Run(ctx context.Context, jobs []utils.StreamJob, numWorkers int) error {
	if len(jobs) == 0 {
		return fmt.Errorf("no jobs to schedule")
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	outputMgr := output.NewManager()
	outputMgr.StartDisplay()
	defer outputMgr.StopDisplay()

	jobCh := make(chan utils.StreamJob, len(jobs))
	for _, job := range jobs {
		if job.ID == "" {
			job.ID = uuid.New().String()
		}
		jobCh <- job
	}
	close(jobCh)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			processJobs(ctx, jobCh, outputMgr)
		}()
	}
	wg.Wait()
	return nil
}

func processJobs(ctx context.Context, jobCh <-chan utils.StreamJob, outputMgr *output.Manager) {
	for job := range jobCh {
		funcID := outputMgr.Register(displayName(job))
		outputMgr.SetMessage(funcID, "Preparing download")
		log.Debug().Str("op", "scheduler").Str("job", job.ID).Msgf("starting job for %s", job.URL)

		client := utils.NewGrabHTTPClient(job.HTTPClientConfig)
		strm, err := stream.New(job.URL, job.StreamID, job.LengthHint, client)
		if err != nil {
			outputMgr.ReportError(funcID, err)
			continue
		}

		if total, err := strm.ContentLength(ctx); err == nil {
			outputMgr.SetTotal(funcID, total)
		} else {
			log.Debug().Str("op", "scheduler").Str("job", job.ID).Err(err).Msg("could not resolve content length")
		}

		cb := &stream.Callback{
			OnProgress: func(downloaded uint64) {
				outputMgr.UpdateProgress(funcID, downloaded)
			},
		}

		outputPath, err := downloadJob(ctx, strm, job, cb)
		if err != nil {
			outputMgr.ReportError(funcID, err)
			continue
		}
		outputMgr.Complete(funcID, fmt.Sprintf("Saved to %s", outputPath))
	}
}

func downloadJob(ctx context.Context, strm *stream.Stream, job utils.StreamJob, cb *stream.Callback) (string, error) {
	if job.OutputPath == "" {
		return strm.DownloadCallback(ctx, cb)
	}
	outputPath := job.OutputPath
	if _, err := os.Stat(outputPath); err == nil {
		outputPath = utils.RenewOutputPath(outputPath)
	}
	if err := strm.DownloadToCallback(ctx, outputPath, cb); err != nil {
		return "", err
	}
	return outputPath, nil
}

func displayName(job utils.StreamJob) string {
	if job.OutputPath != "" {
		return job.OutputPath
	}
	if job.StreamID != "" {
		return job.StreamID
	}
	return job.URL
}
