package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// HotfireCSV is a seven-sample log with every column role present.
// Thrust peaks at 100 lbf on row 3, so a 100 lbf target selects rows 2 to 4
// and yields 2 s of burn and 160 lbf·s of impulse.
const HotfireCSV = `Time (s),Thrust (lbf),Chamber Pressure (psi),Fuel Weight (lbf),Ox Weight (lbf)
0,0,0,10,20
1,40,100,9,18
2,60,200,8,16
3,100,300,7,14
4,60,200,6,12
5,40,100,5,10
6,0,0,4,8
`

// UnlabelledCSV resolves a time column but no thrust column, so the
// analysis waits for a manual assignment.
const UnlabelledCSV = `t,load cell
0,0
1,50
2,100
3,50
`

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
