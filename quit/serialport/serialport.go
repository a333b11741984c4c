package serialport

import (
	"errors"
	"github.com/allape/delaycam/quit"
	"github.com/allape/gogger"
	"go.bug.st/serial"
	"sync"
)

var l = gogger.New("quit.serialport")

const DefaultBaud = 9600

// Button is a quit button wired to a microcontroller that writes Key
// to the serial port when pressed.
type Button struct {
	quit.Trigger

	locker sync.Locker
	port   serial.Port
	reader *quit.Reader

	Device string
	Baud   int
}

func (b *Button) Open() error {
	b.locker.Lock()
	defer b.locker.Unlock()

	if b.port != nil {
		return errors.New("port already open")
	}

	port, err := serial.Open(b.Device, &serial.Mode{
		BaudRate: b.Baud,
	})
	if err != nil {
		return err
	}
	b.port = port
	b.reader.Source = port

	l.Info().Printf("listening for quit key %q on %s at %d baud", b.reader.Key, b.Device, b.Baud)

	return b.reader.Open()
}

func (b *Button) Close() error {
	b.locker.Lock()
	defer b.locker.Unlock()

	if b.port == nil {
		return nil
	}

	_ = b.reader.Close()
	err := b.port.Close()
	b.port = nil
	return err
}

func (b *Button) Name() string {
	return b.reader.Name()
}

func (b *Button) Done() <-chan struct{} {
	return b.reader.Done()
}

func New(name string, baud int, key byte) *Button {
	if baud <= 0 {
		baud = DefaultBaud
	}
	return &Button{
		locker: &sync.Mutex{},
		reader: quit.NewReader("serialport "+name, key, nil),
		Device: name,
		Baud:   baud,
	}
}
