package localizer

import "context"

// Recalibrate triggers a recalibration signal and blocks until the
// Calibrating state has been (re-)entered, or ctx is canceled (spec.md
// §4.1 "Trigger recalibration on demand"; addresses S6 by letting a caller
// confirm calibration actually restarted via the generation counter).
func (l *Localizer) Recalibrate(ctx context.Context) error {
	l.mu.Lock()
	waitCh := l.generationCh
	l.mu.Unlock()

	select {
	case l.recalibCh <- struct{}{}:
	default:
		// A recalibration is already pending (single-slot signal channel).
	}

	select {
	case <-waitCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
