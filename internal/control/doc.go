// Package control builds series controllers as transfer functions.
//
// The family follows the textbook PID structure with a first-order filter
// on the derivative term:
//
//   - [P]: K
//   - [I]: K/(Ti s)
//   - [PI]: K(1 + 1/(Ti s))
//   - [PD]: K(Td N s + 1)/(s + N)
//   - [PID]: K(1 + 1/(Ti s) + Td N s/(s + N))
//
// # Usage
//
//	p := control.DefaultParams()
//	p.K = 2
//	gc, err := p.TransferFunction()
//	resp, err := control.Simulate(plant, p, timeresp.NewZOH(), timeresp.Linspace(0, 40, 400))
//
// [Params.Get] and [Params.Set] expose the gains by name for live tuning.
package control
