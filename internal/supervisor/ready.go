package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ProbeFunc reports whether the service behind url is ready.
type ProbeFunc func(ctx context.Context, url string) error

// HTTPProbe returns a probe that expects a 2xx answer to GET url.
func HTTPProbe(client *http.Client) ProbeFunc {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	return func(ctx context.Context, url string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}
}

// WaitReady polls the health URL of every process that has one until each
// answers or timeout elapses. Processes are probed concurrently.
func (s *Supervisor) WaitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, spec := range s.specs {
		if spec.HealthURL == "" {
			continue
		}
		wg.Add(1)
		go func(spec Spec) {
			defer wg.Done()
			if err := s.waitOne(ctx, spec); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(spec)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (s *Supervisor) waitOne(ctx context.Context, spec Spec) error {
	start := time.Now()
	ticker := time.NewTicker(s.opts.ReadyInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = s.opts.Probe(ctx, spec.HealthURL); lastErr == nil {
			elapsed := time.Since(start)
			if s.opts.Metrics != nil {
				s.opts.Metrics.RecordReady(spec.Name, elapsed)
			}
			s.opts.Logger.Info("backend ready", "process", spec.Name, "url", spec.HealthURL, "elapsed", elapsed)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not ready at %s: %w", spec.Name, spec.HealthURL, lastErr)
		case <-s.done:
			return ErrStopped
		case <-ticker.C:
		}
	}
}
