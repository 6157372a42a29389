package camera

import (
	"time"

	"github.com/nasa-jpl/alpacahub/alpacaerr"
	"github.com/nasa-jpl/alpacahub/registry"
)

// StartExposure validates the request, applies any dirty bin setting,
// and kicks off the exposure in the background (spec.md §4.5's
// IDLE -> EXPOSING -> READING -> IDLE state machine).
func (c *Camera) StartExposure(duration float64, light bool) error {
	c.mu.Lock()
	if duration < c.cfg.ExposureMin || duration > c.cfg.ExposureMax {
		c.mu.Unlock()
		return alpacaerr.InvalidValuef("exposure duration %.6f is outside [%.6f, %.6f]", duration, c.cfg.ExposureMin, c.cfg.ExposureMax)
	}
	if c.startX+c.numX > c.effectiveNumX || c.startY+c.numY > c.effectiveNumY {
		c.mu.Unlock()
		return alpacaerr.InvalidValuef("ROI exceeds the effective frame dimensions")
	}
	if c.state == registry.CameraExposing || c.state == registry.CameraReading {
		c.mu.Unlock()
		return alpacaerr.InvalidOperationf("an exposure is already in progress")
	}

	// Changing binning sets a dirty flag; the next start_exposure
	// applies set_bin_mode before set_resolution (spec.md §4.5 "ROI &
	// binning").
	if c.binDirty {
		if err := c.cfg.SDK.SetBinning(int(c.binX), int(c.binY)); err != nil {
			c.mu.Unlock()
			return alpacaerr.DriverErrorf("set binning: %v", err)
		}
		c.effectiveNumX = c.cfg.CameraXSize / c.binX
		c.effectiveNumY = c.cfg.CameraYSize / c.binY
		if c.cfg.IncludeOverscan && halvesEffectiveHeight(c.cfg.SensorName) {
			c.effectiveNumY /= 2
		}
		c.binDirty = false
	}
	if err := c.applyAOILocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.cfg.SDK.SetExposureTime(time.Duration(duration * float64(time.Second))); err != nil {
		c.mu.Unlock()
		return alpacaerr.DriverErrorf("set exposure time: %v", err)
	}
	if err := c.cfg.SDK.StartAcquisition(); err != nil {
		c.mu.Unlock()
		return alpacaerr.DriverErrorf("start acquisition: %v", err)
	}

	c.state = registry.CameraExposing
	c.imageReady = false
	c.lastExposureDuration = duration
	c.lastExposureStartTime = time.Now().UTC()
	c.percentCompleted = 0
	generation := c.startGeneration()
	c.mu.Unlock()

	go c.runExposure(duration, generation)
	return nil
}

// runExposure blocks for approximately the exposure duration, then
// transitions to READING and fetches the frame. generation guards
// against a stale goroutine completing an exposure that was aborted
// and restarted in the meantime.
func (c *Camera) runExposure(duration float64, generation uint64) {
	remaining := time.Duration(duration * float64(time.Second))
	elapsed := time.Duration(0)
	tick := 100 * time.Millisecond
	for elapsed < remaining {
		time.Sleep(tick)
		elapsed += tick
		c.mu.Lock()
		if c.generation != generation {
			c.mu.Unlock()
			return
		}
		if remaining > 0 {
			c.percentCompleted = int32(100 * elapsed / remaining)
			if c.percentCompleted > 99 {
				c.percentCompleted = 99
			}
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		return
	}
	c.state = registry.CameraReading
	c.mu.Unlock()

	frame, err := c.cfg.SDK.FetchFrame(30 * time.Second)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return
	}
	if err != nil {
		c.state = registry.CameraError
		return
	}
	c.lastFrame = frame
	c.imageReady = true
	c.percentCompleted = 100
	c.state = registry.CameraIdle
}

// startGeneration bumps the exposure generation counter, invalidating
// any in-flight runExposure goroutine from a prior call. Called with mu
// held.
func (c *Camera) startGeneration() uint64 {
	c.generation++
	return c.generation
}

// StopExposure ends the current exposure early but still reads out the
// sensor (as opposed to AbortExposure, which discards the frame).
func (c *Camera) StopExposure() error {
	if !c.cfg.CanStopExposure {
		return alpacaerr.NotImplementedf("this camera cannot stop an exposure early")
	}
	c.mu.Lock()
	if c.state != registry.CameraExposing {
		c.mu.Unlock()
		return alpacaerr.InvalidOperationf("no exposure is in progress")
	}
	c.state = registry.CameraReading
	generation := c.startGeneration()
	c.mu.Unlock()

	frame, err := c.cfg.SDK.FetchFrame(30 * time.Second)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return nil
	}
	if err != nil {
		c.state = registry.CameraError
		return alpacaerr.DriverErrorf("fetch frame: %v", err)
	}
	c.lastFrame = frame
	c.imageReady = true
	c.percentCompleted = 100
	c.state = registry.CameraIdle
	return nil
}

// AbortExposure discards the in-flight exposure without reading it out.
func (c *Camera) AbortExposure() error {
	if !c.cfg.CanAbortExposure {
		return alpacaerr.NotImplementedf("this camera cannot abort an exposure")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == registry.CameraIdle {
		return nil
	}
	c.startGeneration()
	if err := c.cfg.SDK.AbortAcquisition(); err != nil {
		return alpacaerr.DriverErrorf("abort acquisition: %v", err)
	}
	c.state = registry.CameraIdle
	c.imageReady = false
	return nil
}

func (c *Camera) ImageReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageReady
}

func (c *Camera) PercentCompleted() (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.percentCompleted, nil
}

func (c *Camera) LastExposureDuration() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastExposureStartTime.IsZero() {
		return 0, alpacaerr.InvalidOperationf("no exposure has been taken yet")
	}
	return c.lastExposureDuration, nil
}

func (c *Camera) LastExposureStartTime() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastExposureStartTime.IsZero() {
		return time.Time{}, alpacaerr.InvalidOperationf("no exposure has been taken yet")
	}
	return c.lastExposureStartTime, nil
}

// ImageArray reshapes the last frame's flat pixel buffer into the
// image2D[x][y] = raw_1d[x + y*width] layout spec.md §4.5 specifies.
func (c *Camera) ImageArray() ([][]int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.imageReady {
		return nil, alpacaerr.InvalidOperationf("no image is ready")
	}
	return unflatten(c.lastFrame.Pixels, c.lastFrame.Width, c.lastFrame.Height), nil
}

func (c *Camera) ImageArrayVariant() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastFrame.BitsPerPixel == 8 {
		return "Int8"
	}
	return "Int16"
}
