package hardware

import (
	"fmt"
	"log"

	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

// GPIOBoard drives the pump relays through the Pi's GPIO header and reads
// the soil probes through an ADS1115 ADC on the I2C bus. Raw values are the
// ADC output in millivolts, the same scale the calibration thresholds use.
type GPIOBoard struct {
	adaptor *raspi.Adaptor
	adc     *i2c.ADS1x15Driver
	last    [4]int // last good reading per ADC channel
}

func NewGPIOBoard() (*GPIOBoard, error) {
	adaptor := raspi.NewAdaptor()
	if err := adaptor.Connect(); err != nil {
		return nil, fmt.Errorf("raspi adaptor: %w", err)
	}
	adc := i2c.NewADS1115Driver(adaptor)
	if err := adc.Start(); err != nil {
		return nil, fmt.Errorf("ads1115 driver: %w", err)
	}
	return &GPIOBoard{adaptor: adaptor, adc: adc}, nil
}

func (b *GPIOBoard) ReadAnalog(channel int) int {
	v, err := b.adc.ReadWithDefaults(channel)
	if err != nil {
		// the sampler has no error path; fall back to the last good value
		log.Printf("adc read ch%d: %v", channel, err)
		return b.last[channel&3]
	}
	raw := int(v * 1000)
	b.last[channel&3] = raw
	return raw
}

func (b *GPIOBoard) WriteDigital(pin string, high bool) error {
	var level byte
	if high {
		level = 1
	}
	return b.adaptor.DigitalWrite(pin, level)
}

func (b *GPIOBoard) Close() error {
	return b.adaptor.Finalize()
}
