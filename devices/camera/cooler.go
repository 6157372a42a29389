package camera

import (
	"time"

	"github.com/nasa-jpl/alpacahub/registry"
)

const coolerPollInterval = time.Second

// startCoolerLoopLocked launches the background cooler thread. Called
// with mu held, from SetCoolerOn(true); the loop runs only while the
// cooler is on.
func (c *Camera) startCoolerLoopLocked() {
	if c.coolerStop != nil {
		return
	}
	c.coolerStop = make(chan struct{})
	c.coolerDone = make(chan struct{})
	stop := c.coolerStop
	done := c.coolerDone
	go c.coolerLoop(stop, done)
}

// stopCoolerLoopLocked signals the cooler goroutine to exit and waits
// for it. Called with mu held, from SetCoolerOn(false) and from
// SetConnected(false). mu is released while waiting on done, so a
// cooler tick already in progress can take mu and finish before the
// goroutine exits; mu is held again on return.
func (c *Camera) stopCoolerLoopLocked() {
	if c.coolerStop == nil {
		return
	}
	close(c.coolerStop)
	done := c.coolerDone
	c.coolerStop = nil
	c.coolerDone = nil
	c.mu.Unlock()
	<-done
	c.mu.Lock()
}

// coolerLoop periodically re-asserts the cooler set-point and refreshes
// the cached temperature/power readings, skipping the SDK while a
// readout is in progress (spec.md §4.5 "Cooler loop").
func (c *Camera) coolerLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(coolerPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.coolerTick()
		}
	}
}

func (c *Camera) coolerTick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == registry.CameraReading {
		return
	}
	if c.coolerOn {
		_ = c.cfg.SDK.SetCoolerTarget(c.setCCDTemperature, true)
	}
	if temp, err := c.cfg.SDK.ReadSensorTemperature(); err == nil {
		c.cachedCCDTemp = temp
	}
	if c.cfg.CanGetCoolerPower {
		if power, err := c.cfg.SDK.GetFloat("CoolerPower"); err == nil {
			c.cachedCoolerPower = clampPercent(power)
		}
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
