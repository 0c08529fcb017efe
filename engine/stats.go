package engine

import (
	"fmt"
	"time"
)

// Stats aggregates scheduler activity for final reporting.
type Stats struct {
	Windows   int           // completed Simulate windows
	Steps     int           // committed time indices
	NodeSteps int           // node phase sequences run to completion
	Failures  int           // aborted time indices
	Elapsed   time.Duration // wall clock spent inside Simulate
}

// Print displays the run totals at the end of a simulation.
func (st Stats) Print() {
	fmt.Println("=== Engine Stats ===")
	fmt.Printf("Windows simulated : %d\n", st.Windows)
	fmt.Printf("Steps committed   : %d\n", st.Steps)
	fmt.Printf("Node steps        : %d\n", st.NodeSteps)
	fmt.Printf("Aborted indices   : %d\n", st.Failures)
	fmt.Printf("Wall clock        : %s\n", st.Elapsed)
	if st.Steps > 0 && st.Elapsed > 0 {
		rate := float64(st.Steps) / st.Elapsed.Seconds()
		fmt.Printf("Steps per second  : %.0f\n", rate)
	}
}
