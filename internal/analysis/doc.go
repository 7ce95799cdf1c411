// Package analysis compares integrators on a body set.
//
//   - [Convergence]: observed order of accuracy from runs at dt and dt/2
//   - [Compare]: energy drift, momentum drift and end error per integrator
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//
// Global error of a method of order p shrinks by 2^p when dt halves, so the
// convergence ratio is about 2 for Euler, 4 for Verlet and 16 for RK4:
//
//	res, _ := analysis.Convergence(ctx, set, integrators.KindVerlet, 0.5, 60)
//	fmt.Printf("order %.2f\n", res.Order)
package analysis
