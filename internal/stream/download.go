package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tubegrab/tubegrab/internal/utils"
)

func (s *Stream) internalDownloadTo(ctx context.Context, path string, cb *Callback) error {
	log.Trace().Str("op", "stream/download").Str("id", s.id).Msgf("downloading to %s", path)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %v", err)
	}

	var pc *progressChannel
	if cb != nil {
		pc = newProgressChannel()
		pc.start(ctx, cb)
	}

	_, err = s.downloadFull(ctx, s.url, file, pc, 0)
	var reqErr *RequestError
	switch {
	case err == nil:
		log.Info().Str("op", "stream/download").Str("id", s.id).Msgf("downloaded successfully to %s", path)
	case errors.As(err, &reqErr) && reqErr.NotFound():
		log.Warn().Str("op", "stream/download").Str("id", s.id).Err(err).Msg("whole-file request rejected, retrying as sequenced download")
		err = s.downloadFullSeq(ctx, file, pc)
		if err != nil {
			log.Error().Str("op", "stream/download").Str("id", s.id).Err(err).Msg("sequenced download failed")
		}
	default:
		log.Error().Str("op", "stream/download").Str("id", s.id).Err(err).Msg("download failed")
	}

	if err != nil {
		file.Close()
		// The partial file must not survive a reported failure. A failed
		// delete is logged but never masks the download error.
		if rmErr := os.Remove(path); rmErr != nil {
			log.Error().Str("op", "stream/download").Err(rmErr).Msgf("error removing partial file %s", path)
		}
	} else if closeErr := file.Close(); closeErr != nil {
		err = fmt.Errorf("error finalizing output file: %v", closeErr)
	}

	if pc != nil {
		if err != nil {
			pc.stop("")
		} else {
			pc.stop(path)
		}
	}
	return err
}

// downloadFull performs one whole-resource GET and streams the body into
// file, carrying counter forward for continuous progress reporting.
func (s *Stream) downloadFull(ctx context.Context, u *url.URL, file *os.File, pc *progressChannel, counter uint64) (uint64, error) {
	resp, err := s.get(ctx, u.String())
	if err != nil {
		return counter, err
	}
	defer resp.Body.Close()
	return s.writeStreamToFile(resp.Body, file, pc, counter)
}

// writeStreamToFile is the single write loop shared by the whole-file and
// sequenced paths: ordered chunk writes, best-effort progress sends.
func (s *Stream) writeStreamToFile(body io.Reader, file *os.File, pc *progressChannel, counter uint64) (uint64, error) {
	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		bytesRead, readErr := body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := file.Write(buffer[:bytesRead]); writeErr != nil {
				return counter, fmt.Errorf("error writing to output file: %v", writeErr)
			}
			if pc != nil {
				counter += uint64(bytesRead)
				if sendErr := pc.trySend(counter); sendErr != nil {
					return counter, sendErr
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return counter, fmt.Errorf("error reading response body: %w", readErr)
		}
	}
	return counter, nil
}
