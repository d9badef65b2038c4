package picobldc

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

const (
	PicoAddr = 0x42
)

type Register byte

const (
	RegCtrl Register = iota
	RegStatus
	RegWatchdogTimeout
	RegFaultCount

	RegMot0V
	RegMot1V
	RegMot2V
	RegMot3V

	RegMot0Calib
	RegMot1Calib
	RegMot2Calib
	RegMot3Calib

	RegBattV // LSB=4mV
	RegCurrent
	RegPower

	RegTemperature // LSB = 0.01C

	RegMot0Dist // LSB = 1/256 rotation, wraps
	RegMot1Dist
	RegMot2Dist
	RegMot3Dist
)

const (
	BattVLSB       = 0.004
	CurrentLSB     = 0.0001831054688
	PowerLSB       = CurrentLSB * 20
	TemperatureLSB = 0.01

	// SpeedUnitsPerRPS converts wheel revolutions per second to the velocity
	// register's units.
	SpeedUnitsPerRPS = 2048
	// DistanceUnitsPerRotation is the resolution of the distance registers.
	DistanceUnitsPerRotation = 256
)

const (
	RegCtrlEnableI2CControl uint16 = 1 << iota
	RegCtrlRun
	RegCtrlDoCalib
	RegCtrlReset
	RegCtrlWatchdogEnable
)

type StatusFlag uint16

const (
	RegStatusFault StatusFlag = 1 << iota
	RegStatusCalibDone
	RegStatusWatchdogExpired
)

// Motor indexes into a PerMotorVal.
const (
	FrontLeft = iota
	FrontRight
	BackLeft
	BackRight
)

type PerMotorVal[T any] [4]T

type Interface interface {
	SetMotorSpeeds(frontLeft, frontRight, backLeft, backRight int16) error
	RawDistancesTraveled() (PerMotorVal[int16], error)
	Close() error
}

// RPSToMotorSpeed converts a wheel speed in revolutions per second to a
// velocity register value, saturating at the register limits.
func RPSToMotorSpeed(rps float64) int16 {
	v := math.Round(rps * SpeedUnitsPerRPS)
	if v <= math.MinInt16 {
		return math.MinInt16
	}
	if v >= math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(v)
}

type PicoBLDC struct {
	dev *i2c.Dev
	bus i2c.BusCloser

	lastConfigWord  uint16
	lastConfigTime  time.Time
	watchdogEnabled bool
}

func Dummy() Interface {
	return &dummyPico{}
}

var _ Interface = (*PicoBLDC)(nil)

// New opens the Pico-BLDC on the named I2C bus ("" for the first one).
func New(busName string) (*PicoBLDC, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialise periph host")
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open I2C bus %q", busName)
	}
	return &PicoBLDC{
		dev: &i2c.Dev{Addr: PicoAddr, Bus: bus},
		bus: bus,
	}, nil
}

func (p *PicoBLDC) Reset() error {
	return p.maybeConfigure(true, false)
}

func (p *PicoBLDC) SetWatchdog(timeout time.Duration) error {
	if timeout == 0 {
		// Disable.
		p.watchdogEnabled = false
		return p.maybeConfigure(false, false)
	}

	ms := timeout.Milliseconds()
	if ms > math.MaxUint16 {
		ms = math.MaxUint16
	}
	err := p.writeReg(RegWatchdogTimeout, uint16(ms))
	if err != nil {
		return err
	}

	p.watchdogEnabled = true
	return p.maybeConfigure(false, false)
}

func (p *PicoBLDC) SetMotorSpeeds(frontLeft, frontRight, backLeft, backRight int16) error {
	if err := p.maybeConfigure(false, true); err != nil {
		return err
	}
	if err := p.writeReg(RegMot0V, uint16(backRight)); err != nil {
		return err
	}
	if err := p.writeReg(RegMot1V, uint16(frontRight)); err != nil {
		return err
	}
	if err := p.writeReg(RegMot2V, uint16(frontLeft)); err != nil {
		return err
	}
	if err := p.writeReg(RegMot3V, uint16(backLeft)); err != nil {
		return err
	}
	return nil
}

// RawDistancesTraveled reads the wrapping per-motor distance counters.
func (p *PicoBLDC) RawDistancesTraveled() (d PerMotorVal[int16], err error) {
	for reg, m := range map[Register]int{
		RegMot0Dist: BackRight,
		RegMot1Dist: FrontRight,
		RegMot2Dist: FrontLeft,
		RegMot3Dist: BackLeft,
	} {
		raw, err := p.readReg(reg)
		if err != nil {
			return d, err
		}
		d[m] = int16(raw)
	}
	return d, nil
}

func (p *PicoBLDC) Close() error {
	_ = p.Reset()
	return p.bus.Close()
}

func (p *PicoBLDC) writeWithRetries(data []byte) error {
	var err error
	for tries := 0; tries < 20; tries++ {
		_, err = p.dev.Write(data)
		if err == nil {
			if tries > 0 {
				fmt.Println("Successfully programmed Pico-BLDC after retries")
			}
			return nil
		}
		fmt.Println("Failed to write to Pico-BLDC:", err)
		time.Sleep(1 * time.Millisecond)
	}
	return errors.Wrap(err, "failed to write to Pico-BLDC")
}

func (p *PicoBLDC) maybeConfigure(resetMotorSpeeds bool, enableMotors bool) error {
	configWord := RegCtrlEnableI2CControl
	if resetMotorSpeeds {
		configWord |= RegCtrlReset
	}
	if enableMotors {
		configWord |= RegCtrlRun
	}
	if p.watchdogEnabled {
		configWord |= RegCtrlWatchdogEnable
	}

	if configWord == p.lastConfigWord && time.Since(p.lastConfigTime) < 100*time.Millisecond {
		// Skip writing config if we've done it recently.
		return nil
	}

	if p.lastConfigWord == 0 {
		calib, err := p.readReg(RegMot3Calib)
		if err != nil {
			return err
		}
		if calib == 0 {
			// Calibrating spins the wheels, so refuse rather than surprise anyone.
			return errors.New("Pico-BLDC not calibrated; run calibration with the robot on blocks")
		}
	}

	if err := p.writeReg(RegCtrl, configWord); err != nil {
		return err
	}

	p.lastConfigTime = time.Now()
	p.lastConfigWord = configWord & (^RegCtrlReset) /* Reset flag is not persistent */
	return nil
}

func (p *PicoBLDC) BattVolts() (float32, error) {
	raw, err := p.readReg(RegBattV)
	if err != nil {
		return 0, err
	}
	return float32(raw) * BattVLSB, nil
}

func (p *PicoBLDC) Status() (StatusFlag, error) {
	raw, err := p.readReg(RegStatus)
	if err != nil {
		return 0, err
	}
	return StatusFlag(raw), nil
}

func (p *PicoBLDC) writeReg(reg Register, value uint16) error {
	return p.writeWithRetries([]byte{byte(reg), byte(value >> 8), byte(value)})
}

func (p *PicoBLDC) readReg(reg Register) (uint16, error) {
	var buf [2]byte
	if err := p.dev.Tx([]byte{byte(reg)}, buf[:]); err != nil {
		return 0, errors.Wrapf(err, "failed to read Pico-BLDC register %d", reg)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

type dummyPico struct {
	speeds PerMotorVal[int16]
}

func (p *dummyPico) SetMotorSpeeds(frontLeft, frontRight, backLeft, backRight int16) error {
	if p.speeds != (PerMotorVal[int16]{frontLeft, frontRight, backLeft, backRight}) {
		fmt.Printf("Dummy picobldc setting motors: fl=%v fr=%v bl=%v br=%v\n", frontLeft, frontRight, backLeft, backRight)
	}
	p.speeds = PerMotorVal[int16]{frontLeft, frontRight, backLeft, backRight}
	return nil
}

func (p *dummyPico) RawDistancesTraveled() (PerMotorVal[int16], error) {
	return PerMotorVal[int16]{}, nil
}

func (p *dummyPico) Close() error {
	return nil
}
