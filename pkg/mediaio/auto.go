package mediaio

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/driftsync/pkg/audio"
)

// Auto tries the backends one by one (in the given order) until one of
// them succeeds.
type Auto struct {
	Backends []Backend
}

var (
	_ Decoder = (*Auto)(nil)
	_ Encoder = (*Auto)(nil)
)

// NewAuto returns an Auto over the given backends, or over all registered
// backends if none are given.
func NewAuto(backends ...Backend) *Auto {
	if len(backends) == 0 {
		backends = Backends()
	}
	return &Auto{Backends: backends}
}

func (a *Auto) Probe(
	ctx context.Context,
	path string,
) (Info, error) {
	var mErr *multierror.Error
	for _, backend := range a.Backends {
		if !backend.CanDecode(path) {
			continue
		}
		info, err := backend.Probe(ctx, path)
		logger.Debugf(ctx, "probing '%s' with %s result is %v, %v", path, backend, info, err)
		if err == nil {
			return info, nil
		}
		mErr = multierror.Append(mErr, fmt.Errorf("%s: %w", backend, err))
	}
	return Info{}, a.failure("probe", path, mErr)
}

func (a *Auto) Decode(
	ctx context.Context,
	path string,
	opts DecodeOptions,
) (*audio.PCM, error) {
	var mErr *multierror.Error
	for _, backend := range a.Backends {
		if !backend.CanDecode(path) {
			continue
		}
		pcm, err := backend.Decode(ctx, path, opts)
		logger.Debugf(ctx, "decoding '%s' with %s result is %v, %v", path, backend, pcm, err)
		if err == nil {
			return pcm, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		mErr = multierror.Append(mErr, fmt.Errorf("%s: %w", backend, err))
	}
	return nil, a.failure("decode", path, mErr)
}

func (a *Auto) Encode(
	ctx context.Context,
	path string,
	pcm *audio.PCM,
) error {
	var mErr *multierror.Error
	for _, backend := range a.Backends {
		if !backend.CanEncode(path) {
			continue
		}
		err := backend.Encode(ctx, path, pcm)
		logger.Debugf(ctx, "encoding '%s' with %s result is %v", path, backend, err)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		mErr = multierror.Append(mErr, fmt.Errorf("%s: %w", backend, err))
	}
	return a.failure("encode", path, mErr)
}

func (a *Auto) failure(op, path string, mErr *multierror.Error) error {
	if err := mErr.ErrorOrNil(); err != nil {
		return fmt.Errorf("unable to %s '%s': %w", op, path, err)
	}
	return fmt.Errorf("unable to %s '%s': no backend supports it: %w", op, path, ErrUnsupported)
}
