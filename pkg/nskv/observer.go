package nskv

import "time"

// Observer receives measurements from a Client. Implementations must be
// safe for concurrent use.
type Observer interface {
	// ObserveCommand is called after every direct command.
	ObserveCommand(method string, d time.Duration, err error)
	// ObserveBatch is called after every batch round trip.
	ObserveBatch(mode BatchMode, size int, d time.Duration, err error)
	// ObserveScanRound is called for each scan round, and once with
	// anomaly set when a scan stops on a malformed payload.
	ObserveScanRound(items int, anomaly bool)
	// ObserveFallback is called when a document get invokes its fallback.
	ObserveFallback(rerun bool)
}

type nopObserver struct{}

func (nopObserver) ObserveCommand(string, time.Duration, error) {}
func (nopObserver) ObserveBatch(BatchMode, int, time.Duration, error) {}
func (nopObserver) ObserveScanRound(int, bool) {}
func (nopObserver) ObserveFallback(bool) {}
