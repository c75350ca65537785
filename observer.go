package mfi

import "go.uber.org/zap"

// Progress is reported to the Observer at each log checkpoint.
type Progress struct {
	Name      string  //the Name in the options of the run
	Hill      int     //hills processed so far
	Total     int     //hills to be processed in the run
	MeanError float64 //latest average of the mean force error over the grid
}

// Observer receives progress reports from an Accumulator. When walkers
// are run concurrently, the same Observer is called from several goroutines.
type Observer interface {
	Progress(p Progress)
}

// ObserverFunc allows to use an ordinary function as an Observer.
type ObserverFunc func(p Progress)

func (f ObserverFunc) Progress(p Progress) { f(p) }

// NopObserver discards the reports.
type NopObserver struct{}

func (NopObserver) Progress(Progress) {}

// LogObserver reports the progress to a zap logger.
type LogObserver struct {
	L *zap.Logger
}

func (o LogObserver) Progress(p Progress) {
	o.L.Info("mean force integration",
		zap.String("run", p.Name),
		zap.Int("hill", p.Hill),
		zap.Int("total", p.Total),
		zap.Float64("mean_force_error", p.MeanError))
}
