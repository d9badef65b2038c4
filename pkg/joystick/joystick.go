// Package joystick reads a Linux js device and keeps the controller's stick
// and button state up to date as events arrive.
package joystick

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

// Controller layout as the drive base uses it:
//
//	Cross / Circle       manual field / robot relative
//	Square / Triangle    fixed heading / face the configured point
//	PS / Share           stop (wheels locked) / idle
//	Options              auto-drive to the next configured destination
//	L1 / R1, D-pad u/d   pick and adjust a tunable
//	L stick / R stick    reset pose / toggle closed-loop feedback
//
// Sticks and the D-pad report -32767 for up or left and +32767 for down or
// right.

type EventType uint8

const (
	EventTypeButton EventType = 0x01
	EventTypeAxis   EventType = 0x02

	// eventTypeInit marks the synthetic events the driver sends on open to
	// report the initial state.
	eventTypeInit = 0x80
)

const (
	ButtonCross    = 0
	ButtonCircle   = 1
	ButtonTriangle = 2
	ButtonSquare   = 3
	ButtonL1       = 4
	ButtonR1       = 5
	ButtonL2       = 6
	ButtonR2       = 7
	ButtonShare    = 8
	ButtonOptions  = 9
	ButtonPS       = 10
	ButtonLStick   = 11
	ButtonRStick   = 12

	AxisLStickX = 0
	AxisLStickY = 1
	AxisRStickX = 3
	AxisRStickY = 4
	AxisDPadX   = 6
	AxisDPadY   = 7
)

func (e EventType) String() string {
	switch e {
	case EventTypeAxis:
		return "axis"
	case EventTypeButton:
		return "button"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

// Event is one decoded device event plus the stick state after applying it.
type Event struct {
	Time    time.Time
	Value   int16
	Type    EventType
	Number  uint8
	Initial bool

	Sticks  Sticks
	Changed bool
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

// Pressed reports whether this is the press (not the release) of button.
// The initial state report never counts as a press.
func (e *Event) Pressed(button uint8) bool {
	return !e.Initial && e.Type == EventTypeButton && e.Number == button && e.Value == 1
}

type Joystick struct {
	device io.ReadCloser
	sticks Sticks

	deviceEpoch    uint32
	wallclockEpoch time.Time
}

func Open(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return New(f), nil
}

// New reads js events from r, which is closed by Close.
func New(r io.ReadCloser) *Joystick {
	return &Joystick{device: r}
}

func (j *Joystick) ReadEvent() (*Event, error) {
	var raw rawEvent
	err := binary.Read(j.device, binary.LittleEndian, &raw)
	if err != nil {
		return nil, err
	}

	if j.wallclockEpoch.IsZero() {
		j.deviceEpoch = raw.Time
		j.wallclockEpoch = time.Now()
	}

	e := &Event{
		Time:    j.wallclockEpoch.Add(time.Duration(raw.Time-j.deviceEpoch) * time.Millisecond),
		Value:   raw.Value,
		Type:    EventType(raw.Type &^ eventTypeInit),
		Number:  raw.Number,
		Initial: raw.Type&eventTypeInit != 0,
	}
	e.Changed = j.sticks.Update(e)
	e.Sticks = j.sticks
	return e, nil
}

// Sticks returns the state built from the events read so far.
func (j *Joystick) Sticks() Sticks {
	return j.sticks
}

func (j *Joystick) Close() error {
	return j.device.Close()
}

// WaitForDevice retries opening device once a second until it appears or ctx
// is done.
func WaitForDevice(ctx context.Context, device string) (*Joystick, error) {
	firstLog := true
	for {
		j, err := Open(device)
		if err == nil {
			fmt.Println("Opened joystick", device)
			return j, nil
		}
		if firstLog {
			fmt.Printf("Waiting for joystick: %v.\n", err)
			firstLog = false
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// LoopReadingEvents sends every event to events until a read fails or ctx is
// done, then closes events and the device.
func (j *Joystick) LoopReadingEvents(ctx context.Context, events chan<- *Event) error {
	defer close(events)
	defer j.Close()
	for ctx.Err() == nil {
		event, err := j.ReadEvent()
		if err != nil {
			fmt.Printf("Failed to read from joystick: %v.\n", err)
			return err
		}
		select {
		case events <- event:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}
