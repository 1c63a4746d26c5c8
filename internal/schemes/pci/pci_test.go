package pci

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
)

func newMachine() *hal.Sim {
	sim := hal.NewSim()
	sim.AddPCIDevice(0, 0, 0, 0x8086, 0x1237, 0x06, 0x00, 0)
	sim.AddPCIDevice(0, 3, 0, 0x8086, 0x100E, 0x02, 0x00, 11)
	sim.AddPCIDevice(1, 2, 0, 0x1234, 0x1111, 0x03, 0x00, 10)
	return sim
}

func TestScan(t *testing.T) {
	devices := Scan(newMachine(), 2)
	require.Len(t, devices, 3)

	assert.Equal(t, Device{
		Bus: 0, Slot: 3, Function: 0,
		Vendor: "8086", Device: "100e",
		Class: 0x02, IRQ: 11,
		Description: "network controller",
	}, devices[1])
	assert.Equal(t, uint8(1), devices[2].Bus)
	assert.Equal(t, "display controller", devices[2].Description)
}

func TestScanBoundsBuses(t *testing.T) {
	assert.Len(t, Scan(newMachine(), 1), 2)
}

func TestFetch(t *testing.T) {
	s := New(newMachine(), 2, nil)

	var got []string
	s.Fetch(context.Background(), resource.MustParse("pci:devices.json"), func(resp resource.Response) {
		got = append(got, resp.Text())
		assert.Equal(t, "3", resp.Get("devices"))
		assert.Equal(t, "application/json", resp.MIME)
	})
	s.Fetch(context.Background(), resource.MustParse("pci:bogus"), func(resource.Response) {
		t.Fatal("unknown document must not complete")
	})
	s.OnPoll(context.Background())

	require.Len(t, got, 1)
	assert.Contains(t, got[0], `"vendor": "1234"`)
}
