// Package performance derives engine performance quantities from windowed
// hotfire samples: specific impulse, exhaust and characteristic velocity,
// plus the series helpers (downsampling, smoothing, two-point averages and
// summary statistics) the plots and exports share.
//
// Mass flow rates are supplied by the operator in lb/s. Chamber pressure
// is expected in psi and throat area in ft².
package performance
