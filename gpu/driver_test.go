// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu_test

import (
	"testing"

	"github.com/nope-engine/ngl/gpu"
	_ "github.com/nope-engine/ngl/gpu/gputest"
)

func TestDrivers(t *testing.T) {
	drivers := gpu.Drivers()
	if len(drivers) == 0 {
		t.Fatal("gpu.Drivers: expected at least the fake test driver to be registered")
	}
	for i := range drivers {
		name := drivers[i].Name()
		for j := 0; j < i; j++ {
			if name == drivers[j].Name() {
				t.Error("gpu.Drivers: Driver.Name is not unique")
			}
		}
	}
	drivers2 := gpu.Drivers()
	if len(drivers) != len(drivers2) {
		t.Error("gpu.Drivers: length mismatch")
	} else {
		for i := range drivers {
			if drivers[i].Name() != drivers2[i].Name() {
				t.Error("gpu.Drivers: Driver.Name mismatch")
			}
		}
	}
}
