package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/AgentOS/executive/internal/drivers/serial"
	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes/pci"
)

func TestFeedSerial(t *testing.T) {
	sim := hal.NewSim()
	defer sim.Close()
	const port = 0x3F8

	feedSerial(context.Background(), sim, port, 4, strings.NewReader("hi\n"))

	var got []byte
	for sim.Inb(port+serial.RegLineStatus)&serial.LineDataReady != 0 {
		got = append(got, sim.Inb(port+serial.RegData))
	}
	assert.Equal(t, "hi\n", string(got))
	assert.NotZero(t, sim.Primary().IRR&(1<<4), "serial line requested")
}

func TestDefaultDevices(t *testing.T) {
	sim := hal.NewSim()
	defer sim.Close()
	addDefaultDevices(sim)

	devices := pci.Scan(sim, 1)
	assert.Len(t, devices, 4)
}
