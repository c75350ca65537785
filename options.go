package mfi

import "runtime"

//Options contains the parameters of a Mean Force Integration run.
type Options struct {
	Bandwidth float64 //width of the kernel used for the estimate of the biased probability density
	KT        float64 //thermal energy, in the units of the hill heights
	LogPace   int     //the Observer is called LogPace times along the run
	ErrorPace int     //the global error is evaluated ErrorPace times along the run
	//If true, the hill heights are scaled by (gamma-1)/gamma, where gamma is the
	//bias factor stored in the first hill.
	WellTempered bool
	NHills       int    //analyse only the first NHills hills. 0 or less means all of them.
	Cpus         int    //maximum number of walkers run at the same time
	Name         string //identifies the run in the progress reports
	Observer     Observer
}

//DefaultOptions returns the options used when nothing else is given:
//unit bandwidth and kT, a well-tempered simulation, all hills analysed,
//10 progress reports, 200 error evaluations, and all logical CPUs for walkers.
func DefaultOptions() *Options {
	r := new(Options)
	r.Bandwidth = 1
	r.KT = 1
	r.LogPace = 10
	r.ErrorPace = 200
	r.WellTempered = true
	r.NHills = -1
	r.Cpus = runtime.NumCPU()
	r.Observer = NopObserver{}
	return r
}

func (O *Options) validate() error {
	if !(O.Bandwidth > 0) {
		return newError(InvalidInput, "validate", "bandwidth must be positive, got %g", O.Bandwidth)
	}
	if !(O.KT > 0) {
		return newError(InvalidInput, "validate", "kT must be positive, got %g", O.KT)
	}
	if O.ErrorPace <= 0 || O.LogPace <= 0 {
		return newError(InvalidInput, "validate", "error and log paces must be positive, got %d and %d", O.ErrorPace, O.LogPace)
	}
	return nil
}
