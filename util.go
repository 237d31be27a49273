package epiabm

import "fmt"

// fmtAny renders an arbitrary property value into a stable string used
// only as an internal map key (Tabulate); it is never shown to users.
func fmtAny(v Value) string {
	return fmt.Sprintf("%v", v)
}
