package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/itohio/gotec/pkg/tec"
)

var (
	// ErrTimeout is returned when the host-side read timeout expires before
	// the full report has arrived.
	ErrTimeout = errors.New("timed out waiting for samples")
	// ErrLinkBroken marks a failure after the trigger was sent. The device is
	// left mid-cycle, so the connection can no longer be framed and must be
	// reopened.
	ErrLinkBroken = errors.New("link out of sync")
)

type deadliner interface {
	SetDeadline(t time.Time) error
}

// exchange performs one cycle over rw and returns the report. If rw is an
// io.Closer it is closed when ctx ends, which unblocks a pending read.
func exchange(ctx context.Context, rw io.ReadWriter, n int, cmd tec.Command) (samples []uint8, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if d, ok := rw.(deadliner); ok {
		if dl, ok := ctx.Deadline(); ok {
			if err := d.SetDeadline(dl); err != nil {
				return nil, fmt.Errorf("failed to set deadline: %w", err)
			}
			defer d.SetDeadline(time.Time{})
		}
	}

	if c, ok := rw.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer func() {
			// The port may have been closed after the last byte went out.
			if !stop() && err == nil {
				samples, err = nil, fmt.Errorf("%w: %w", ErrLinkBroken, ctx.Err())
			}
		}()
	}

	if _, err := rw.Write([]byte{tec.TriggerByte}); err != nil {
		return nil, linkError(ctx, "failed to send trigger", err)
	}

	samples = make([]uint8, n)
	if err := readFull(rw, samples); err != nil {
		return nil, linkError(ctx, fmt.Sprintf("failed to read %d samples", n), err)
	}

	frame, err := cmd.MarshalBinary()
	if err != nil {
		return nil, linkError(ctx, "failed to encode command", err)
	}
	if _, err := rw.Write(frame); err != nil {
		return nil, linkError(ctx, "failed to send command", err)
	}

	return samples, nil
}

// linkError wraps err with ErrLinkBroken. A cancelled ctx is reported in
// place of the close error it caused.
func linkError(ctx context.Context, what string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return fmt.Errorf("%w: %s: %w", ErrLinkBroken, what, err)
}

// readFull fills buf. Unlike io.ReadFull it treats an empty read as a
// timeout: go.bug.st/serial returns (0, nil) when its read timeout expires.
func readFull(r io.Reader, buf []byte) error {
	got := 0
	for got < len(buf) {
		n, err := r.Read(buf[got:])
		got += n
		if got == len(buf) {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) && got > 0 {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if n == 0 {
			return ErrTimeout
		}
	}
	return nil
}
