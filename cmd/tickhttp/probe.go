// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/tickhttp/pkg/httpclient"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ProbeError reports a probed URL which did not answer with a 2xx status.
type ProbeError struct {
	URL    string
	Status int
}

func (e ProbeError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.Status)
}

const maxConcurrentProbes = 8

type probeResult struct {
	url     string
	status  int
	latency time.Duration
	err     error
}

func newProbeCmd() *cobra.Command {
	var (
		urls    []string
		retries int
		timeout time.Duration
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "GET each URL and fail unless every one answers 2xx",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			client := httpclient.New(
				httpclient.Name("probe"),
				httpclient.Logger(newLogger(cmd.ErrOrStderr(), level, false)),
				httpclient.Timeout(timeout),
				httpclient.Retries(retries),
			)

			results := probeAll(cmd.Context(), client, urls)

			var errs []error
			for _, res := range results {
				if res.err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s error %s\n", res.url, res.err)
					errs = append(errs, res.err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s\n", res.url, res.status, res.latency.Round(time.Millisecond))
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringSliceVar(&urls, "url", nil, "URL to probe, may be repeated")
	cmd.Flags().IntVar(&retries, "retries", 2, "additional attempts on connection errors and 5xx responses")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "timeout for each attempt")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every attempt")
	cmd.MarkFlagRequired("url")
	return cmd
}

// probeAll probes every URL concurrently. Results keep the order of urls.
func probeAll(ctx context.Context, client *http.Client, urls []string) []probeResult {
	results := make([]probeResult, len(urls))

	var g errgroup.Group
	g.SetLimit(maxConcurrentProbes)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i] = probe(ctx, client, u)
			return nil
		})
	}
	g.Wait()
	return results
}

func probe(ctx context.Context, client *http.Client, url string) probeResult {
	res := probeResult{url: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.err = err
		return res
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		res.err = err
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	res.latency = time.Since(start)
	res.status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.err = ProbeError{URL: url, Status: resp.StatusCode}
	}
	return res
}

